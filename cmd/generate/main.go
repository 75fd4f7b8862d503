package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/geomboard/internal/config"
	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/ledger"
	"github.com/danielpatrickdp/geomboard/internal/logging"
	"github.com/danielpatrickdp/geomboard/internal/sampler"
)

// #region main
func main() {
	paramsPath := flag.String("params", "", "parameter file (.json, .yaml, .yml)")
	outDir := flag.String("out", envOr("GEOMBOARD_OUT", "datasets"), "output root (must not already hold this config_id)")
	seedFlag := flag.String("seed", "", "random seed (overrides the parameter file)")
	workers := flag.Int("workers", 1, "buckets filled in parallel")
	dbPath := flag.String("db", envOr("GEOMBOARD_DB", ""), "ledger database for run and trial provenance")
	logLevel := flag.String("log-level", envOr("GEOMBOARD_LOG_LEVEL", "info"), "log level")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	stall := flag.Duration("stall-timeout", 5*time.Minute, "abort a bucket that accepts nothing for this long (0 disables)")
	maxExp := flag.Int("max-expansions", sampler.DefaultOptions().MaxExpansions, "solver node budget per trial")
	flag.Parse()

	if *paramsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: generate -params path/to/params.yaml [-out dir] [-seed n] [-workers n] [-db ledger.db]")
		fmt.Fprintln(os.Stderr, "  writes <out>/<config_id>/; an existing config set is never resumed or overwritten,")
		fmt.Fprintln(os.Stderr, "  so rerun with a new -out or config_id to start fresh")
		os.Exit(2)
	}

	log, err := logging.NewLogger(os.Stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	params, err := config.Load(*paramsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if err := params.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	seed, err := resolveSeed(*seedFlag, params.Seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	params = params.WithSeed(seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, params, *outDir, *dbPath, *workers, *stall, *maxExp, log); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, params *config.Params, outDir, dbPath string, workers int, stall time.Duration, maxExp int, log *logrus.Logger) error {
	writer, err := dataset.NewWriter(outDir, params)
	if err != nil {
		return err
	}

	opts := sampler.DefaultOptions()
	opts.Seed = *params.Seed
	opts.Workers = workers
	opts.StallTimeout = stall
	opts.MaxExpansions = maxExp

	var store *ledger.Store
	var runRec ledger.Run
	if dbPath != "" {
		store, err = ledger.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer store.Close()
		runRec, err = store.StartRun("generate", params.ConfigID, opts.Seed, params)
		if err != nil {
			return err
		}
		opts.Recorder = store.Recorder(runRec.RunID)
	}

	s, err := sampler.New(params, writer, opts, log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"config_id": params.ConfigID,
		"seed":      opts.Seed,
		"workers":   opts.Workers,
		"buckets":   len(sampler.Buckets(params)),
		"out":       writer.Dir(),
	}).Info("generating dataset")

	sum, runErr := s.Run(ctx)

	if store != nil {
		status := ledger.StatusComplete
		if runErr != nil {
			status = ledger.StatusFailed
		}
		if err := store.FinishRun(runRec.RunID, status, sum); err != nil {
			log.WithError(err).Error("ledger finish failed")
		}
	}

	var mismatch *sampler.MismatchError
	switch {
	case errors.As(runErr, &mismatch):
		log.WithFields(logrus.Fields{
			"bucket":  mismatch.Bucket.String(),
			"start":   mismatch.Start.Flatten(),
			"goal":    mismatch.Goal.Flatten(),
			"optimal": len(mismatch.Optimal),
			"L":       mismatch.L,
		}).Error("solver returned a path longer than a known walk")
		return runErr
	case runErr != nil:
		return runErr
	}

	for _, b := range sum.Skipped {
		fmt.Printf("skipped %s\n", b)
	}
	fmt.Printf("%d instances in %d buckets, %d trials, %s\n",
		sum.Accepted, len(sum.Buckets), sum.Trials, sum.Elapsed.Round(time.Millisecond))
	fmt.Printf("  seed: %d | out: %s\n", sum.Seed, writer.Dir())
	if store != nil {
		fmt.Printf("  run: %s\n", runRec.RunID)
	}
	return nil
}

// #endregion run

// #region helpers
// resolveSeed prefers the flag, then the parameter file, then the clock.
func resolveSeed(flagVal string, fromParams *uint64) (uint64, error) {
	if flagVal != "" {
		seed, err := strconv.ParseUint(flagVal, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse -seed: %w", err)
		}
		return seed, nil
	}
	if fromParams != nil {
		return *fromParams, nil
	}
	return uint64(time.Now().UnixNano()), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
