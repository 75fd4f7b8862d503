package solver

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/geomboard/internal/action"
)

// #region errors
var (
	// ErrNoPathFound is returned when the goal cannot be reached with the
	// enabled actions.
	ErrNoPathFound = errors.New("solver: no path found")

	// ErrSearchBudget is returned when the search expands more nodes than
	// allowed by WithMaxExpansions.
	ErrSearchBudget = errors.New("solver: search budget exhausted")

	// ErrBoardMismatch is returned when start and goal differ in dimensions
	// or geom count.
	ErrBoardMismatch = errors.New("solver: start and goal boards do not match")
)

// #endregion errors

// #region solution
// Solution is an optimal action sequence plus search statistics.
type Solution struct {
	Actions  []action.Action
	Expanded int
}

// Len is the optimal path length (c1).
func (s Solution) Len() int { return len(s.Actions) }

// Strings renders the actions.
func (s Solution) Strings() []string {
	out := make([]string, len(s.Actions))
	for i, a := range s.Actions {
		out[i] = a.String()
	}
	return out
}

// #endregion solution

// #region options
// Option configures a Solver.
type Option func(*Solver)

// WithMaxExpansions bounds the number of node expansions per Solve. Zero or
// negative means unbounded.
func WithMaxExpansions(n int) Option {
	return func(s *Solver) { s.maxExpansions = n }
}

// WithFlipTable shares a prebuilt flip table between solvers.
func WithFlipTable(ft *FlipTable) Option {
	return func(s *Solver) {
		if ft != nil {
			s.flips = ft
		}
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Solver) {
		if log != nil {
			s.log = log
		}
	}
}

// #endregion options
