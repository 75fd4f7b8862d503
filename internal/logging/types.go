package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	RunID        string
	ContextHash  string // board pair hash for trials, episode id for steps
	TriggerType  string // "trial" | "episode"
	SignalsJSON  string
	EvidenceRefs string
	Decision     string // "accept" | "reject" | "solved" | "failed"
	Reason       string
	CreatedAt    time.Time
}

// #endregion provenance-entry
