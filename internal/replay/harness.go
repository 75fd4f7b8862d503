package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/geomboard/internal/board"
	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/game"
	"github.com/danielpatrickdp/geomboard/internal/logging"
	"github.com/danielpatrickdp/geomboard/internal/solver"
)

// Replay outcomes.
const (
	ActionPass         = "pass"
	ActionDisallowed   = "action_disallowed"
	ActionPathInvalid  = "path_invalid"
	ActionGoalMismatch = "goal_mismatch"
	ActionC1Mismatch   = "c1_mismatch"
	ActionC2Mismatch   = "c2_mismatch"
	ActionNotOptimal   = "not_optimal"
)

// #region types
// ReplayConfig selects the checks run per instance.
type ReplayConfig struct {
	// CheckOptimal re-solves every instance and requires the optimum to
	// equal c1.
	CheckOptimal bool
	// MaxExpansions bounds each re-solve. Zero means unbounded.
	MaxExpansions int
}

// DefaultReplayConfig replays paths and checks counters without re-solving.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		CheckOptimal:  false,
		MaxExpansions: 200000,
	}
}

// ReplayResult captures the outcome of verifying one instance.
type ReplayResult struct {
	InstanceID string
	Action     string // one of the Action* outcomes
	Reason     string

	// Steps is the number of path actions applied before the first failure.
	Steps int
	// Final is the board reached by the replayed path.
	Final board.Board
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total    int
	Passed   int
	Failures map[string]int
	Failed   []string
}

// OK reports whether every instance passed.
func (s ReplaySummary) OK() bool {
	return s.Passed == s.Total
}

// #endregion types

// #region replay
// Replay verifies each instance independently: every path action is in the
// instance's action set, the path leads from start_state to goal_state, c1
// is the path length and c2 is (c1 - manhattan) / 2. Cancellation is only
// observed between instances and inside optimality re-solves.
func Replay(ctx context.Context, instances []dataset.Instance, config ReplayConfig, log logrus.FieldLogger) ([]ReplayResult, error) {
	if log == nil {
		log = logging.Discard()
	}
	sys := game.NewSystem(log)
	var sol *solver.Solver
	if config.CheckOptimal {
		sol = solver.New(sys, solver.WithMaxExpansions(config.MaxExpansions), solver.WithLogger(log))
	}

	results := make([]ReplayResult, 0, len(instances))
	for _, inst := range instances {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := verify(ctx, sys, sol, inst)
		if err != nil {
			return results, fmt.Errorf("instance %s: %w", inst.ID, err)
		}
		if r.Action != ActionPass {
			log.WithFields(logrus.Fields{
				"instance": inst.ID,
				"action":   r.Action,
			}).Warn(r.Reason)
		}
		results = append(results, r)
	}
	return results, nil
}

func verify(ctx context.Context, sys *game.System, sol *solver.Solver, inst dataset.Instance) (ReplayResult, error) {
	r := ReplayResult{InstanceID: inst.ID}
	set, err := inst.Actions()
	if err != nil {
		r.Action, r.Reason = ActionDisallowed, err.Error()
		return r, nil
	}
	for n, a := range inst.OptimalPath {
		if !set.Allows(a.Kind) {
			r.Action = ActionDisallowed
			r.Reason = fmt.Sprintf("step %d (%s): %s not in action set %v", n, a, a.Kind, set.Names())
			return r, nil
		}
	}

	start, goal := inst.Start(), inst.Goal()
	final, err := sys.Replay(start, goal, inst.OptimalPath)
	r.Final = final
	if err != nil {
		r.Action, r.Reason = ActionPathInvalid, err.Error()
		return r, nil
	}
	r.Steps = len(inst.OptimalPath)
	if !final.Equal(goal) {
		r.Action = ActionGoalMismatch
		r.Reason = fmt.Sprintf("path ends at %s, goal is %s", final.Flatten(), goal.Flatten())
		return r, nil
	}
	if inst.C1 != len(inst.OptimalPath) {
		r.Action = ActionC1Mismatch
		r.Reason = fmt.Sprintf("c1 %d but path has %d actions", inst.C1, len(inst.OptimalPath))
		return r, nil
	}
	excess := inst.C1 - start.Manhattan(goal)
	if excess < 0 || excess%2 != 0 || excess/2 != inst.C2 {
		r.Action = ActionC2Mismatch
		r.Reason = fmt.Sprintf("c2 %d but c1 - manhattan is %d", inst.C2, excess)
		return r, nil
	}

	if sol != nil {
		best, err := sol.Solve(ctx, start, goal, set)
		switch {
		case errors.Is(err, solver.ErrSearchBudget), errors.Is(err, solver.ErrNoPathFound):
			r.Action, r.Reason = ActionNotOptimal, err.Error()
			return r, nil
		case err != nil:
			return r, err
		}
		if best.Len() != inst.C1 {
			r.Action = ActionNotOptimal
			r.Reason = fmt.Sprintf("solver finds %d actions, c1 is %d", best.Len(), inst.C1)
			return r, nil
		}
	}

	r.Action, r.Reason = ActionPass, "all checks passed"
	return r, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		Total:    len(results),
		Failures: make(map[string]int),
	}
	for _, r := range results {
		if r.Action == ActionPass {
			s.Passed++
			continue
		}
		s.Failures[r.Action]++
		s.Failed = append(s.Failed, r.InstanceID)
	}
	return s
}

// #endregion replay
