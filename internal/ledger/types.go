package ledger

import "time"

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// #region run
// Run is one generation or episode run.
type Run struct {
	RunID       string
	Kind        string // "generate" | "episode"
	ConfigID    string
	Seed        uint64
	ParamsJSON  string
	Status      string
	SummaryJSON string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// #endregion run

// #region trial-counts
// TrialCounts aggregates the provenance rows of a run.
type TrialCounts struct {
	Accepted int
	Rejected int
	Reasons  map[string]int
}

// #endregion trial-counts
