package gate

// #region veto-type
// VetoType enumerates hard veto categories. Values double as the rejection
// reasons recorded in trial provenance.
type VetoType string

const (
	VetoShorter      VetoType = "shorter_than_target"
	VetoLonger       VetoType = "longer_than_target"
	VetoParity       VetoType = "manhattan_parity"
	VetoInterference VetoType = "interference_mismatch"
	VetoDuplicate    VetoType = "duplicate"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig is the target of one bucket.
type GateConfig struct {
	PathLen      int // required optimal length L
	Interference int // required c2
}

// #endregion gate-config

// #region trial
// Trial is what the gate sees of one solved (start, goal) pair.
type Trial struct {
	Optimal   int    // solver path length
	Manhattan int    // start.Manhattan(goal)
	Witness   bool   // the synthesised walk is a valid path of length L
	Hash      string // board.PairHash(start, goal)
}

// #endregion trial

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "accept" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
	C2          int          // (L - manhattan) / 2 when integral and non-negative
	// Mismatch is set when the optimum exceeds L although the walk proves a
	// path of length L exists.
	Mismatch bool
}

// #endregion gate-decision
