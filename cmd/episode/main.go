package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/geomboard/internal/agent"
	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/episode"
	"github.com/danielpatrickdp/geomboard/internal/eval"
	"github.com/danielpatrickdp/geomboard/internal/ledger"
	"github.com/danielpatrickdp/geomboard/internal/logging"
)

// #region main
func main() {
	dir := flag.String("dir", "", "config-set directory written by generate")
	instanceID := flag.String("instance", "", "play a single instance (default: all)")
	oracle := flag.Bool("oracle", false, "play each instance's optimal path instead of asking an agent")
	agentAddr := flag.String("agent-addr", envOr("AGENT_ADDR", "localhost:50051"), "agent service address")
	dbPath := flag.String("db", envOr("GEOMBOARD_DB", ""), "ledger database for episode steps")
	timeout := flag.Duration("timeout", 5*time.Minute, "per-episode timeout")
	factor := flag.Int("max-steps-factor", episode.DefaultConfig().MaxStepsFactor, "step budget as a multiple of c1")
	logLevel := flag.String("log-level", envOr("GEOMBOARD_LOG_LEVEL", "info"), "log level")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: episode --dir path/to/config_set [--instance id] [--oracle | --agent-addr host:port] [--db ledger.db]")
		os.Exit(2)
	}

	log, err := logging.NewLogger(os.Stderr, *logLevel, "text")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	instances, err := selectInstances(*dir, *instanceID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := episode.DefaultConfig()
	cfg.MaxStepsFactor = *factor
	configID := filepath.Base(filepath.Clean(*dir))
	if err := run(ctx, configID, instances, cfg, *oracle, *agentAddr, *dbPath, *timeout, log); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, configID string, instances []dataset.Instance, cfg episode.Config, oracle bool, addr, dbPath string, timeout time.Duration, log *logrus.Logger) error {
	var client *agent.Client
	if !oracle {
		c, err := agent.NewClient(addr)
		if err != nil {
			return fmt.Errorf("connect to agent service at %s: %w", addr, err)
		}
		defer c.Close()
		client = c
	}

	var rec episode.StepRecorder
	var store *ledger.Store
	var runRec ledger.Run
	if dbPath != "" {
		s, err := ledger.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer s.Close()
		store, rec = s, s
		runRec, err = store.StartRun("episode", configID, 0, cfg)
		if err != nil {
			return err
		}
	}

	runner := episode.NewRunner(cfg, rec, log)
	harness := eval.NewEvalHarness(eval.DefaultEvalConfig())
	var scored []eval.EvalResult

	for _, inst := range instances {
		var ag episode.Agent = client
		if oracle {
			ag = episode.NewOracleAgent(inst.OptimalPath)
		}
		epCtx, cancel := context.WithTimeout(ctx, timeout)
		res, err := runner.Run(epCtx, inst, ag)
		cancel()
		if err != nil {
			if store != nil {
				_ = store.FinishRun(runRec.RunID, ledger.StatusFailed, eval.Summarize(scored))
			}
			return err
		}
		if store != nil {
			if err := store.LogEpisode(runRec.RunID, res); err != nil {
				log.WithError(err).Error("ledger episode log failed")
			}
		}

		er := harness.Run(res)
		scored = append(scored, er)
		fmt.Printf("%-44s solved=%-5t steps=%d/%d optimal=%d invalid=%d  %s\n",
			inst.ID, res.Solved, res.Steps, res.Budget, res.Optimal, res.InvalidActions, er.Reason)
	}

	sum := eval.Summarize(scored)
	if store != nil {
		if err := store.FinishRun(runRec.RunID, ledger.StatusComplete, sum); err != nil {
			log.WithError(err).Error("ledger finish failed")
		}
	}
	fmt.Printf("\nSummary: %d episodes, %d passed, solve rate %.4f, mean efficiency %.4f, %d invalid actions\n",
		sum.Episodes, sum.Passed, sum.SolveRate, sum.MeanEfficiency, sum.InvalidActions)
	return nil
}

// #endregion run

// #region helpers
func selectInstances(dir, id string) ([]dataset.Instance, error) {
	all, err := dataset.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if id == "" {
		if len(all) == 0 {
			return nil, fmt.Errorf("no instances in %s", dir)
		}
		return all, nil
	}
	for _, in := range all {
		if in.ID == id {
			return []dataset.Instance{in}, nil
		}
	}
	return nil, fmt.Errorf("instance %s not found in %s", id, dir)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
