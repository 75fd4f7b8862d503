package eval

import (
	"fmt"

	"github.com/danielpatrickdp/geomboard/internal/episode"
)

// Metric names.
const (
	MetricSolved         = "solved"
	MetricSteps          = "steps"
	MetricEfficiency     = "efficiency"
	MetricInvalidActions = "invalid_actions"
)

// #region eval-harness
// EvalHarness scores finished episodes.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run scores one episode. An episode passes iff it reached the goal within
// its step budget; efficiency and invalid rate are informational.
func (h *EvalHarness) Run(res episode.Result) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	// 1. Solved
	solved := float32(0)
	if res.Solved {
		solved = 1
	}
	metrics = append(metrics, EvalMetric{Name: MetricSolved, Value: solved, Pass: res.Solved})
	if !res.Solved {
		failReasons = append(failReasons, fmt.Sprintf("goal not reached in %d steps", res.Steps))
	}

	// 2. Steps within budget
	withinBudget := res.Steps <= res.Budget
	metrics = append(metrics, EvalMetric{Name: MetricSteps, Value: float32(res.Steps), Pass: withinBudget})
	if !withinBudget {
		failReasons = append(failReasons, fmt.Sprintf("steps %d exceed budget %d", res.Steps, res.Budget))
	}

	// 3. Efficiency: informational
	eff := efficiency(res)
	metrics = append(metrics, EvalMetric{
		Name:  MetricEfficiency,
		Value: eff,
		Pass:  res.Solved && eff >= h.config.MinEfficiency,
	})

	// 4. Invalid actions: informational
	metrics = append(metrics, EvalMetric{
		Name:  MetricInvalidActions,
		Value: float32(res.InvalidActions),
		Pass:  invalidRate(res) <= h.config.MaxInvalidRate,
	})

	reason := "all checks passed"
	passed := len(failReasons) == 0
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		InstanceID: res.InstanceID,
		Passed:     passed,
		Metrics:    metrics,
		Reason:     reason,
	}
}

// #endregion eval-harness

// #region summarize
// Summarize aggregates scored episodes. Mean efficiency is taken over solved
// episodes only.
func Summarize(results []EvalResult) Summary {
	s := Summary{Episodes: len(results)}
	var effSum float32
	solved := 0
	for _, r := range results {
		if r.Passed {
			s.Passed++
		}
		if m, ok := r.Metric(MetricSolved); ok && m.Pass {
			solved++
			if e, ok := r.Metric(MetricEfficiency); ok {
				effSum += e.Value
			}
		}
		if m, ok := r.Metric(MetricInvalidActions); ok {
			s.InvalidActions += int(m.Value)
		}
	}
	if s.Episodes > 0 {
		s.SolveRate = float32(solved) / float32(s.Episodes)
	}
	if solved > 0 {
		s.MeanEfficiency = effSum / float32(solved)
	}
	return s
}

// #endregion summarize

// #region helpers
// efficiency is c1/steps; an episode that needed no steps scores 1.
func efficiency(res episode.Result) float32 {
	if res.Steps == 0 {
		return 1
	}
	return float32(res.Optimal) / float32(res.Steps)
}

func invalidRate(res episode.Result) float32 {
	if res.Steps == 0 {
		return 0
	}
	return float32(res.InvalidActions) / float32(res.Steps)
}

// #endregion helpers
