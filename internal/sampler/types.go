package sampler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/board"
	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/gate"
)

// ErrStalled is returned when a bucket accepts nothing for StallTimeout.
var ErrStalled = errors.New("sampler: no trial accepted within stall timeout")

// #region bucket
// Bucket is one (W, H, N, L, F) cell of the parameter grid. Index is its
// position in iteration order and seeds the bucket's random stream.
type Bucket struct {
	Index        int `json:"index"`
	Width        int `json:"width"`
	Height       int `json:"height"`
	NumGeoms     int `json:"num_geoms"`
	PathLen      int `json:"path_len"`
	Interference int `json:"interference"`
}

func (b Bucket) String() string {
	return fmt.Sprintf("b_%d_%d_g_%d_L_%d_F_%d", b.Width, b.Height, b.NumGeoms, b.PathLen, b.Interference)
}

// Feasible reports whether any instance can land in the bucket: c2 is at most
// L/2 since the Manhattan term is non-negative.
func (b Bucket) Feasible() bool {
	return 2*b.Interference <= b.PathLen
}

// #endregion bucket

// #region options
// Options tunes a sampling run.
type Options struct {
	// Seed for every bucket stream.
	Seed uint64
	// Workers is the number of buckets filled in parallel.
	Workers int
	// StallTimeout aborts a bucket that accepts nothing for this long. Zero
	// disables the watchdog.
	StallTimeout time.Duration
	// ProgressEvery logs bucket progress every n trials. Zero disables it.
	ProgressEvery int
	// MaxExpansions bounds each solve; exceeding it rejects the trial.
	MaxExpansions int
	// Recorder, when set, receives every trial decision.
	Recorder Recorder
}

// DefaultOptions returns sequential sampling with progress logs and a
// five-minute watchdog.
func DefaultOptions() Options {
	return Options{
		Seed:          0,
		Workers:       1,
		StallTimeout:  5 * time.Minute,
		ProgressEvery: 10000,
		MaxExpansions: 200000,
	}
}

// #endregion options

// #region collaborators
// Sink receives accepted instances. dataset.Writer is the production sink.
type Sink interface {
	Write(dataset.Instance) error
}

// Recorder receives trial decisions for provenance.
type Recorder interface {
	RecordTrial(TrialRecord) error
}

// Trial decisions.
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

// Rejection reasons.
const (
	ReasonNoPath       = "no_path"
	ReasonBudget       = "search_budget"
	ReasonShorter      = string(gate.VetoShorter)
	ReasonLonger       = string(gate.VetoLonger)
	ReasonParity       = string(gate.VetoParity)
	ReasonInterference = string(gate.VetoInterference)
	ReasonDuplicate    = string(gate.VetoDuplicate)
)

// TrialRecord is one trial decision.
type TrialRecord struct {
	Bucket    string `json:"bucket"`
	Trial     int    `json:"trial"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	Hash      string `json:"hash"`
	Optimal   int    `json:"optimal"`
	Manhattan int    `json:"manhattan"`
	Instance  string `json:"instance,omitempty"`
}

// #endregion collaborators

// #region summary
// BucketSummary reports one filled bucket.
type BucketSummary struct {
	Bucket     Bucket         `json:"bucket"`
	Accepted   int            `json:"accepted"`
	Trials     int            `json:"trials"`
	Rejections map[string]int `json:"rejections"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
}

// Summary reports a sampling run.
type Summary struct {
	Seed     uint64          `json:"seed"`
	Buckets  []BucketSummary `json:"buckets"`
	Skipped  []Bucket        `json:"skipped,omitempty"`
	Accepted int             `json:"accepted"`
	Trials   int             `json:"trials"`
	Elapsed  time.Duration   `json:"elapsed_ns"`
}

// #endregion summary

// #region mismatch-error
// MismatchError is raised when the solver returns a path longer than a
// synthesised walk that is known to reach the goal.
type MismatchError struct {
	Bucket  Bucket
	Start   board.Board
	Goal    board.Board
	Optimal []action.Action
	L       int
}

func (e *MismatchError) Error() string {
	steps := make([]string, len(e.Optimal))
	for i, a := range e.Optimal {
		steps[i] = a.String()
	}
	return fmt.Sprintf("sampler: solver mismatch in %s: optimal %d > L %d; start %s goal %s path [%s]",
		e.Bucket, len(e.Optimal), e.L, e.Start.Flatten(), e.Goal.Flatten(), strings.Join(steps, ", "))
}

// #endregion mismatch-error
