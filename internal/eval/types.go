package eval

// #region eval-config
// EvalConfig holds thresholds for episode scoring.
type EvalConfig struct {
	MinEfficiency  float32 // warn if c1/steps falls below this
	MaxInvalidRate float32 // warn if invalid/steps rises above this
}

// DefaultEvalConfig returns the thresholds used by cmd/episode.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinEfficiency:  0.5,
		MaxInvalidRate: 0.25,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single check result.
type EvalMetric struct {
	Name  string
	Value float32
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult scores one episode.
type EvalResult struct {
	InstanceID string
	Passed     bool
	Metrics    []EvalMetric
	Reason     string
}

// Metric returns the named metric.
func (r EvalResult) Metric(name string) (EvalMetric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

// #endregion eval-result

// #region summary
// Summary aggregates scored episodes.
type Summary struct {
	Episodes       int
	Passed         int
	SolveRate      float32
	MeanEfficiency float32
	InvalidActions int
}

// #endregion summary
