package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/admitly/internal/domain/scoring"
	"github.com/okian/admitly/pkg/logger"
)

const (
	workerChannelMultiplier = 2
	settlePollInterval      = 100 * time.Millisecond
	directoryPermission     = 0o750
	maxLoggedMismatches     = 10
)

// Run executes a complete load run: generate, submit, wait for the cohort
// to absorb the submissions, then verify ranks and the top of the cohort.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get()
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("applicants", cfg.NumApplicants),
		logger.Int("workers", cfg.Workers),
		logger.Int("topN", cfg.TopN))

	var ref referenceView
	if err := client.getJSON(ctx, "/v1/reference", &ref); err != nil {
		return stats, fmt.Errorf("service reference check failed: %w", err)
	}
	est := scoring.NewEstimator(
		scoring.WithReference(ref.Statistics),
		scoring.WithWeights(ref.WeightTest, ref.WeightGPA),
	)

	var before statsResponse
	if err := client.getJSON(ctx, "/stats", &before); err != nil {
		return stats, fmt.Errorf("service stats check failed: %w", err)
	}

	applicants, err := generateApplicants(ctx, NewGenerator(est, cfg.Seed, cfg.SATShare), cfg.NumApplicants, stats)
	if err != nil {
		return stats, fmt.Errorf("applicant generation failed: %w", err)
	}
	if cfg.OutputFile != "" {
		if err := saveApplicants(cfg.OutputFile, applicants); err != nil {
			log.Warn(ctx, "failed to save applicants to file", logger.Error(err))
		}
	}

	kept := submitApplicants(ctx, client, cfg, applicants, stats)

	if err := waitForCohort(ctx, client, before.CohortSize+len(kept), cfg.SettleTimeout); err != nil {
		return stats, err
	}

	entries := fetchRanks(ctx, client, cfg, kept, stats)
	top, err := fetchTop(ctx, client, cfg.TopN, stats)
	if err != nil {
		return stats, fmt.Errorf("top retrieval failed: %w", err)
	}

	mismatches := verifyComposites(kept, entries)
	mismatches = append(mismatches, verifyTop(top)...)
	if before.CohortSize == 0 {
		mismatches = append(mismatches, verifyRanks(kept, entries)...)
	}
	stats.Mismatches = len(mismatches)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(mismatches) > 0 {
		for i, m := range mismatches {
			if i == maxLoggedMismatches {
				break
			}
			log.Error(ctx, "mismatch", logger.String("student_id", m.StudentID), logger.String("reason", m.Reason))
		}
		return stats, fmt.Errorf("%w: %d mismatches", ErrVerification, len(mismatches))
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

// waitForCohort polls /stats until the cohort holds want students.
func waitForCohort(ctx context.Context, c *HTTPClient, want int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	for {
		var st statsResponse
		if err := c.getJSON(ctx, "/stats", &st); err == nil && st.CohortSize >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: want %d students", ErrNotSettled, want)
		case <-ticker.C:
		}
	}
}

// saveApplicants writes the generated applicants as a JSON array.
func saveApplicants(filename string, applicants []Applicant) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(applicants, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal applicants: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * 100
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("topEntries", stats.TopEntries),
		logger.Int("mismatches", stats.Mismatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("submissionsPerSecond", perSecond))
}
