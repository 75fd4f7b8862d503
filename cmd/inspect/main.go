package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/ledger"
)

// #region main

func main() {
	dir := flag.String("dir", "", "config-set directory written by generate")
	dbPath := flag.String("db", "", "ledger database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show trial breakdown for one run")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dir == "" && *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --dir path/to/config_set [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --db path/to/ledger.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	if *dir != "" {
		if err := runDatasetMode(*dir, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if *dbPath != "" {
		store, err := ledger.NewStore(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open db: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		if *runID != "" {
			err = runDetailMode(store, *runID, *jsonOut)
		} else {
			err = runListMode(store, *last, *jsonOut)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region dataset-mode

type bucketRow struct {
	Bucket    string  `json:"bucket"`
	Instances int     `json:"instances"`
	C1        int     `json:"c1"`
	C2        int     `json:"c2"`
	MeanGeoms float64 `json:"mean_on_board_goal"`
}

type datasetOutput struct {
	ConfigID  string      `json:"config_id"`
	Seed      *uint64     `json:"seed,omitempty"`
	Instances int         `json:"instances"`
	Buckets   []bucketRow `json:"buckets"`
}

func runDatasetMode(dir string, jsonOut bool) error {
	params, err := dataset.LoadParams(dir)
	if err != nil {
		return err
	}
	instances, err := dataset.LoadDir(dir)
	if err != nil {
		return err
	}

	byBucket := make(map[string]*bucketRow)
	onBoard := make(map[string]int)
	for _, in := range instances {
		key := in.Bucket()
		row, ok := byBucket[key]
		if !ok {
			row = &bucketRow{Bucket: key, C1: in.C1, C2: in.C2}
			byBucket[key] = row
		}
		row.Instances++
		for _, g := range in.GoalState {
			if g.OnBoard() {
				onBoard[key]++
			}
		}
	}

	out := datasetOutput{ConfigID: params.ConfigID, Seed: params.Seed, Instances: len(instances)}
	for key, row := range byBucket {
		row.MeanGeoms = float64(onBoard[key]) / float64(row.Instances)
		out.Buckets = append(out.Buckets, *row)
	}
	sort.Slice(out.Buckets, func(i, j int) bool { return out.Buckets[i].Bucket < out.Buckets[j].Bucket })

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Config: %s | instances: %d", out.ConfigID, out.Instances)
	if out.Seed != nil {
		fmt.Printf(" | seed: %d", *out.Seed)
	}
	fmt.Println()
	fmt.Printf("%-28s  %9s  %4s  %4s  %s\n", "Bucket", "Instances", "c1", "c2", "On-board (goal)")
	fmt.Printf("%-28s+-%9s+-%4s+-%4s+-%s\n", "----------------------------", "---------", "----", "----", "---------------")
	for _, r := range out.Buckets {
		fmt.Printf("%-28s  %9d  %4d  %4d  %.2f\n", r.Bucket, r.Instances, r.C1, r.C2, r.MeanGeoms)
	}
	return nil
}

// #endregion dataset-mode

// #region list-mode

type runRow struct {
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	ConfigID  string `json:"config_id"`
	Seed      uint64 `json:"seed"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
}

func runListMode(store *ledger.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]runRow, len(runs))
	for i, r := range runs {
		rows[i] = runRow{
			RunID:     r.RunID,
			Kind:      r.Kind,
			ConfigID:  r.ConfigID,
			Seed:      r.Seed,
			Status:    r.Status,
			StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-8s  %-20s  %-20s  %-8s  %s\n", "Run", "Kind", "Config", "Seed", "Status", "Started")
	fmt.Printf("%-10s+-%-8s+-%-20s+-%-20s+-%-8s+-%s\n",
		"----------", "--------", "--------------------", "--------------------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-8s  %-20s  %-20d  %-8s  %s\n", shortID(r.RunID), r.Kind, r.ConfigID, r.Seed, r.Status, r.StartedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID    string          `json:"run_id"`
	Status   string          `json:"status"`
	Accepted int             `json:"accepted"`
	Rejected int             `json:"rejected"`
	Reasons  map[string]int  `json:"reasons"`
	Summary  json.RawMessage `json:"summary,omitempty"`
}

func runDetailMode(store *ledger.Store, runID string, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	counts, err := store.CountTrials(runID)
	if err != nil {
		return err
	}
	out := detailOutput{
		RunID:    run.RunID,
		Status:   run.Status,
		Accepted: counts.Accepted,
		Rejected: counts.Rejected,
		Reasons:  counts.Reasons,
	}
	if run.SummaryJSON != "" {
		out.Summary = json.RawMessage(run.SummaryJSON)
	}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run: %s (%s, %s)\n", run.RunID, run.Kind, run.Status)
	fmt.Printf("  config: %s | seed: %d\n", run.ConfigID, run.Seed)
	total := counts.Accepted + counts.Rejected
	rate := 0.0
	if total > 0 {
		rate = float64(counts.Accepted) / float64(total)
	}
	fmt.Printf("  trials: %d | accepted: %d | rate: %.4f\n", total, counts.Accepted, rate)

	reasons := make([]string, 0, len(counts.Reasons))
	for r := range counts.Reasons {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	fmt.Printf("\nRejections:\n")
	for _, r := range reasons {
		fmt.Printf("  %-24s %d\n", r, counts.Reasons[r])
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
