package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/admitly/pkg/logger"
)

// HTTPClient wraps http.Client with JSON helpers.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// getJSON GETs path and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d: %s", errStatus, resp.StatusCode, bytes.TrimSpace(body))
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// postJSON POSTs body and returns the status code and response body.
func (c *HTTPClient) postJSON(ctx context.Context, path string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	out, err := readResponseBody(resp)
	return resp.StatusCode, out, err
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

type submitOutcome int

const (
	outcomeAccepted submitOutcome = iota
	outcomeDuplicate
	outcomeFailed
)

// submitApplicants posts every applicant with a pool of workers. Applicants
// the server did not accept are dropped from the returned slice.
func submitApplicants(ctx context.Context, c *HTTPClient, cfg *Config, applicants []Applicant, stats *Stats) []Applicant {
	log := logger.Get()
	log.Info(ctx, "submitting applicants", logger.Int("count", len(applicants)), logger.Int("workers", cfg.Workers))

	var accepted, duplicate, failed, submitted int64
	ok := make([]bool, len(applicants))

	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				outcome := submitOne(ctx, c, applicants[i])
				atomic.AddInt64(&submitted, 1)
				switch outcome {
				case outcomeAccepted:
					atomic.AddInt64(&accepted, 1)
					ok[i] = true
				case outcomeDuplicate:
					atomic.AddInt64(&duplicate, 1)
					ok[i] = true
				default:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed", logger.String("assessment_id", applicants[i].AssessmentID))
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range applicants {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted)
	stats.Accepted = int(accepted)
	stats.Duplicate = int(duplicate)
	stats.Failed = int(failed)
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed))

	kept := make([]Applicant, 0, len(applicants))
	for i, a := range applicants {
		if ok[i] {
			kept = append(kept, a)
		}
	}
	return kept
}

func submitOne(ctx context.Context, c *HTTPClient, a Applicant) submitOutcome { //nolint:gocritic // hugeParam: value semantics
	status, body, err := c.postJSON(ctx, "/v1/assessments", a)
	if err != nil {
		return outcomeFailed
	}
	var res submitResponse
	_ = json.Unmarshal(body, &res)
	switch status {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		if res.Status == "duplicate" {
			return outcomeDuplicate
		}
		return outcomeAccepted
	default:
		return outcomeFailed
	}
}

// fetchRanks reads every applicant's cohort entry concurrently. Missing
// entries are left zero.
func fetchRanks(ctx context.Context, c *HTTPClient, cfg *Config, applicants []Applicant, stats *Stats) []Entry {
	log := logger.Get()
	log.Info(ctx, "retrieving rankings", logger.Int("count", len(applicants)))

	entries := make([]Entry, len(applicants))
	var retrieved, failed int64

	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				var e Entry
				err := c.getJSON(ctx, "/v1/cohort/rank/"+url.PathEscape(applicants[i].StudentID), &e)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "rank lookup failed",
							logger.String("student_id", applicants[i].StudentID), logger.Error(err))
					}
					continue
				}
				entries[i] = e
				atomic.AddInt64(&retrieved, 1)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range applicants {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.RankingsRetrieved = int(retrieved)
	log.Info(ctx, "ranking retrieval completed",
		logger.Int("retrieved", int(retrieved)), logger.Int("failed", int(failed)))
	return entries
}

// fetchTop reads the top n cohort entries.
func fetchTop(ctx context.Context, c *HTTPClient, n int, stats *Stats) ([]Entry, error) {
	var top []Entry
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/cohort/top?limit=%d", n), &top); err != nil {
		return nil, err
	}
	stats.TopEntries = len(top)
	return top, nil
}
