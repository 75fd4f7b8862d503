package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/logging"
	"github.com/danielpatrickdp/geomboard/internal/replay"
)

// #region main

func main() {
	dir := flag.String("dir", "", "config-set directory (dataset mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	checkOptimal := flag.Bool("check-optimal", false, "re-solve every instance and require c1 to be optimal")
	maxExp := flag.Int("max-expansions", replay.DefaultReplayConfig().MaxExpansions, "solver node budget per re-solve")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if (*dir == "" && *fixturePath == "") || (*dir != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --dir path/to/config_set [--check-optimal]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(ctx, *fixturePath, *logLevel)
	} else {
		config := replay.ReplayConfig{CheckOptimal: *checkOptimal, MaxExpansions: *maxExp}
		exitCode = runDatasetMode(ctx, *dir, config, *logLevel)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region modes

func runDatasetMode(ctx context.Context, dir string, config replay.ReplayConfig, level string) int {
	log, err := logging.NewLogger(os.Stderr, level, "text")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	instances, err := dataset.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load dataset: %v\n", err)
		return 2
	}
	if len(instances) == 0 {
		fmt.Fprintln(os.Stderr, "no instances found")
		return 2
	}

	results, err := replay.Replay(ctx, instances, config, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return printResults(results, nil)
}

func runFixtureMode(ctx context.Context, path, level string) int {
	log, err := logging.NewLogger(os.Stderr, level, "text")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, err := replay.Replay(ctx, f.Instances, f.Config.ToReplayConfig(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	expected := make(map[string]string, len(f.ExpectedResults))
	for _, e := range f.ExpectedResults {
		expected[e.InstanceID] = e.Action
	}
	return printResults(results, expected)
}

// #endregion modes

// #region output

// printResults outputs a result table and returns the exit code. With
// expected set, rows are compared against it; otherwise every instance must
// pass.
func printResults(results []replay.ReplayResult, expected map[string]string) int {
	fmt.Printf("%-44s| %-18s| %-18s| %s\n", "Instance", "Expected", "Replayed", "Match")
	fmt.Printf("%-44s+%-18s+%-18s+%s\n",
		"--------------------------------------------", "-------------------", "-------------------", "------")

	diverge := 0
	for _, r := range results {
		exp := replay.ActionPass
		if expected != nil {
			exp = expected[r.InstanceID]
		}
		match := "OK"
		if exp != r.Action {
			match = "DIFF"
			diverge++
		}
		fmt.Printf("%-44s| %-18s| %-18s| %s\n", r.InstanceID, exp, r.Action, match)
		if match == "DIFF" && r.Reason != "" {
			fmt.Printf("    %s\n", r.Reason)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d pass, %d diverge\n", s.Total, s.Passed, diverge)
	for action, n := range s.Failures {
		fmt.Printf("  %-18s %d\n", action, n)
	}

	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
