package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/replay"
)

// #region main

func main() {
	dir := flag.String("dir", "", "config-set directory written by generate")
	last := flag.Int("last", 4, "number of instances to export, taken from the end of the sorted dataset")
	outPath := flag.String("out", "", "output fixture JSON path")
	checkOptimal := flag.Bool("check-optimal", true, "re-solve instances when recording expected outcomes")
	flag.Parse()

	if *dir == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --dir path/to/config_set --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dir, *last, *outPath, *checkOptimal); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dir string, last int, outPath string, checkOptimal bool) error {
	instances, err := dataset.LoadDir(dir)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		return fmt.Errorf("no instances found in %s", dir)
	}
	if last > 0 && last < len(instances) {
		instances = instances[len(instances)-last:]
	}

	fmt.Printf("Found %d instances\n", len(instances))

	config := replay.DefaultReplayConfig()
	config.CheckOptimal = checkOptimal
	results, err := replay.Replay(context.Background(), instances, config, nil)
	if err != nil {
		return err
	}

	fixture := buildFixture(filepath.Base(filepath.Clean(dir)), instances, results, config)
	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region output

// buildFixture snapshots the current replay outcome of each instance as its
// expected result.
func buildFixture(configID string, instances []dataset.Instance, results []replay.ReplayResult, config replay.ReplayConfig) replay.Fixture {
	expected := make([]replay.FixtureExpectedResult, len(results))
	for i, r := range results {
		expected[i] = replay.FixtureExpectedResult{
			InstanceID: r.InstanceID,
			Action:     r.Action,
		}
	}

	return replay.Fixture{
		Description: fmt.Sprintf("Dataset export: %d instances from %s", len(instances), configID),
		Config: replay.FixtureConfig{
			CheckOptimal:  config.CheckOptimal,
			MaxExpansions: config.MaxExpansions,
		},
		Instances:       instances,
		ExpectedResults: expected,
	}
}

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d instances)\n", outPath, len(data), len(fixture.Instances))
	return nil
}

// #endregion output
