package action

import (
	"math/rand/v2"

	"github.com/danielpatrickdp/geomboard/internal/board"
)

// Transitions are pure: each returns a new board, or the input unchanged when
// the request is illegal. None of them panic on a bad geom index.

// #region transitions
// MoveGeom steps geom i one cell in direction d. The geom lands one stack
// level above the highest geom already at the target cell.
func MoveGeom(b board.Board, i int, d board.Direction) board.Board {
	if !inRange(b, i) || !b.Geoms[i].OnBoard() {
		return b
	}
	g := b.Geoms[i]
	target, ok := b.Step(g.Pos, d)
	if !ok {
		return b
	}
	g.Pos = target
	g.Stack = b.TopStack(target, i) + 1
	return b.With(i, g)
}

// FlipGeom rotates geom i through the flip transition for direction d.
func FlipGeom(b board.Board, i int, d board.Direction) board.Board {
	if !inRange(b, i) || !b.Geoms[i].OnBoard() {
		return b
	}
	g := b.Geoms[i]
	next := FlipTransition(g.Orient, d)
	if next == g.Orient {
		return b
	}
	g.Orient = next
	return b.With(i, g)
}

// RemoveGeom takes geom i off the board. Other stacks are not rebalanced.
func RemoveGeom(b board.Board, i int) board.Board {
	if !inRange(b, i) || !b.Geoms[i].OnBoard() {
		return b
	}
	g := b.Geoms[i]
	g.Stack = board.OffBoard
	return b.With(i, g)
}

// AddGeom puts off-board geom i on a uniformly chosen unoccupied cell,
// keeping its orientation. The board is unchanged when every cell is taken.
func AddGeom(b board.Board, i int, rng *rand.Rand) board.Board {
	if !inRange(b, i) || b.Geoms[i].OnBoard() {
		return b
	}
	free := b.FreeCells()
	if len(free) == 0 {
		return b
	}
	g := b.Geoms[i]
	g.Pos = free[rng.IntN(len(free))]
	g.Stack = b.TopStack(g.Pos, i) + 1
	return b.With(i, g)
}

// PlaceGeom is the goal-directed add: off-board geom i takes the position,
// stack level and orientation it has in goal.
func PlaceGeom(b board.Board, i int, goal board.Board) board.Board {
	if !inRange(b, i) || i >= goal.Len() || b.Geoms[i].OnBoard() || !goal.Geoms[i].OnBoard() {
		return b
	}
	return b.With(i, goal.Geoms[i])
}

// Apply dispatches a on b. Adds are random and draw from rng.
func Apply(b board.Board, a Action, rng *rand.Rand) board.Board {
	switch a.Kind {
	case Move:
		return MoveGeom(b, a.Object, a.Dir)
	case Flip:
		return FlipGeom(b, a.Object, a.Dir)
	case Remove:
		return RemoveGeom(b, a.Object)
	case Add:
		return AddGeom(b, a.Object, rng)
	}
	return b
}

// ApplyToward dispatches a on b with adds placed at their goal slot.
func ApplyToward(b board.Board, a Action, goal board.Board) board.Board {
	if a.Kind == Add {
		return PlaceGeom(b, a.Object, goal)
	}
	return Apply(b, a, nil)
}

// #endregion transitions

func inRange(b board.Board, i int) bool {
	return i >= 0 && i < b.Len()
}
