package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/admitly/internal/loadgen"
	"github.com/okian/admitly/pkg/logger"
)

// Default configuration constants.
const (
	defaultApplicants    = 10000
	defaultTopN          = 50
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultSettleTimeout = 2 * time.Minute
	defaultRunTimeout    = 10 * time.Minute
	defaultSATShare      = 0.6
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		applicants = flag.Int("applicants", defaultApplicants, "Number of applicants to generate and submit")
		topN       = flag.Int("top", defaultTopN, "Number of top cohort entries to verify")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettleTimeout, "How long to wait for the cohort to absorb submissions")
		satShare   = flag.Float64("sat-share", defaultSATShare, "Fraction of applicants reporting SAT")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		outputFile = flag.String("output", "", "Optional JSON file for generated applicants")
		logFormat  = flag.String("log-format", "text", "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Log every failed request")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:       *baseURL,
		NumApplicants: *applicants,
		TopN:          *topN,
		Workers:       max(*workers, 1),
		Timeout:       *timeout,
		SettleTimeout: *settle,
		SATShare:      *satShare,
		Seed:          *seed,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	}
	if _, err := loadgen.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
