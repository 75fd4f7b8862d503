package game

import (
	"fmt"
	"iter"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/board"
	"github.com/danielpatrickdp/geomboard/internal/logging"
)

// #region system
// System is the game façade used by the solver, the sampler and the episode
// simulator. It wraps the pure transitions with an invariant post-hook.
type System struct {
	log logrus.FieldLogger
}

// Successor is one search neighbour.
type Successor struct {
	Action action.Action
	Board  board.Board
}

// NewSystem returns a System logging invariant violations to log. A nil
// logger discards them.
func NewSystem(log logrus.FieldLogger) *System {
	if log == nil {
		log = logging.Discard()
	}
	return &System{log: log}
}

// #endregion system

// #region validity
// IsValid reports whether b satisfies the placement invariants.
func (s *System) IsValid(b board.Board) bool {
	return b.Validate() == nil
}

func (s *System) guard(before, after board.Board, a action.Action) board.Board {
	if err := after.Validate(); err != nil {
		s.log.WithFields(logrus.Fields{
			"action": a.String(),
			"board":  before.Flatten(),
			"error":  err.Error(),
		}).Warn("invariant violated, keeping previous state")
		return before
	}
	return after
}

// #endregion validity

// #region apply
// Apply applies a with random adds. The original board is returned if the
// result breaks an invariant.
func (s *System) Apply(b board.Board, a action.Action, rng *rand.Rand) board.Board {
	if a.Kind == action.Add && rng == nil {
		return b
	}
	return s.guard(b, action.Apply(b, a, rng), a)
}

// ApplyToward applies a with adds placed at their slot in goal.
func (s *System) ApplyToward(b board.Board, a action.Action, goal board.Board) board.Board {
	return s.guard(b, action.ApplyToward(b, a, goal), a)
}

// ApplyRandom applies an action of the given kind to a uniformly chosen geom
// in a uniformly chosen direction. It never retries.
func (s *System) ApplyRandom(b board.Board, kind action.Kind, rng *rand.Rand) (board.Board, action.Action) {
	if b.Len() == 0 {
		return b, action.Action{Kind: kind, Dir: board.NoDirection}
	}
	a := action.Action{Kind: kind, Object: rng.IntN(b.Len()), Dir: board.NoDirection}
	if kind.Directional() {
		a.Dir = board.Directions[rng.IntN(len(board.Directions))]
	}
	return s.Apply(b, a, rng), a
}

// #endregion apply

// #region legal-actions
// LegalActions yields every enabled action that changes b: kinds in the order
// move, flip, add, remove, then geoms by index, then directions up, down,
// left, right.
func (s *System) LegalActions(b board.Board, set action.Set) iter.Seq[action.Action] {
	return func(yield func(action.Action) bool) {
		if set.Move {
			for i, g := range b.Geoms {
				if !g.OnBoard() {
					continue
				}
				for _, d := range board.Directions {
					if _, ok := b.Step(g.Pos, d); !ok {
						continue
					}
					if !yield(action.Action{Kind: action.Move, Object: i, Dir: d}) {
						return
					}
				}
			}
		}
		if set.Flip {
			for i, g := range b.Geoms {
				if !g.OnBoard() {
					continue
				}
				for _, d := range board.Directions {
					if action.FlipTransition(g.Orient, d) == g.Orient {
						continue
					}
					if !yield(action.Action{Kind: action.Flip, Object: i, Dir: d}) {
						return
					}
				}
			}
		}
		if set.CanAdd() && len(b.FreeCells()) > 0 {
			for i, g := range b.Geoms {
				if g.OnBoard() {
					continue
				}
				if !yield(action.Action{Kind: action.Add, Object: i, Dir: board.NoDirection}) {
					return
				}
			}
		}
		if set.CanRemove() {
			for i, g := range b.Geoms {
				if !g.OnBoard() {
					continue
				}
				if !yield(action.Action{Kind: action.Remove, Object: i, Dir: board.NoDirection}) {
					return
				}
			}
		}
	}
}

// #endregion legal-actions

// #region successors
// Successors lists the search neighbours of b toward goal: every legal move,
// a goal-directed add for each off-board geom that is on the board in goal,
// and a remove for each on-board geom that is off the board in goal. Flips
// are not searched.
func (s *System) Successors(b, goal board.Board, set action.Set) []Successor {
	var out []Successor
	if set.Move {
		for i, g := range b.Geoms {
			if !g.OnBoard() {
				continue
			}
			for _, d := range board.Directions {
				if _, ok := b.Step(g.Pos, d); !ok {
					continue
				}
				a := action.Action{Kind: action.Move, Object: i, Dir: d}
				out = append(out, Successor{Action: a, Board: action.MoveGeom(b, i, d)})
			}
		}
	}
	if set.CanAdd() {
		for i, g := range b.Geoms {
			if g.OnBoard() || !goal.Geoms[i].OnBoard() {
				continue
			}
			next := action.PlaceGeom(b, i, goal)
			if next.Validate() != nil {
				continue
			}
			out = append(out, Successor{Action: action.Action{Kind: action.Add, Object: i, Dir: board.NoDirection}, Board: next})
		}
	}
	if set.CanRemove() {
		for i, g := range b.Geoms {
			if !g.OnBoard() || goal.Geoms[i].OnBoard() {
				continue
			}
			a := action.Action{Kind: action.Remove, Object: i, Dir: board.NoDirection}
			out = append(out, Successor{Action: a, Board: action.RemoveGeom(b, i)})
		}
	}
	return out
}

// #endregion successors

// #region replay
// Replay applies path to start with goal-directed adds and returns the final
// board. A step that leaves the board unchanged is an error.
func (s *System) Replay(start, goal board.Board, path []action.Action) (board.Board, error) {
	cur := start
	for n, a := range path {
		if a.Object < 0 || a.Object >= cur.Len() {
			return cur, fmt.Errorf("replay step %d (%s): geom index out of range", n, a)
		}
		next := s.ApplyToward(cur, a, goal)
		if next.Equal(cur) {
			return cur, fmt.Errorf("replay step %d (%s): action had no effect", n, a)
		}
		cur = next
	}
	return cur, nil
}

// #endregion replay
