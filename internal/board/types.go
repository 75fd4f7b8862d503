package board

import (
	"encoding/json"
	"fmt"
)

// #region constants
const (
	// OffBoard is the stack level of a geom that is not on the board.
	OffBoard = -1

	// NumOrientations is the number of discrete geom orientations (1..12).
	NumOrientations = 12
)

// #endregion constants

// #region direction
// Direction is one of the four board directions. The declaration order is the
// fixed iteration order used everywhere actions are enumerated.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right

	NoDirection Direction = -1
)

// Directions lists the four directions in iteration order.
var Directions = [4]Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	for _, d := range Directions {
		if d.String() == s {
			return d, nil
		}
	}
	return NoDirection, fmt.Errorf("unknown direction %q", s)
}

// #endregion direction

// #region geom
// Geom is one object on (or off) the board. Position is a 1-based row-major
// cell index; Stack is 0 at the bottom of a cell and OffBoard when removed.
// Position and Orient are meaningless for off-board geoms.
type Geom struct {
	Pos    int
	Stack  int
	Orient int
}

// OnBoard reports whether the geom is placed on the board.
func (g Geom) OnBoard() bool { return g.Stack >= 0 }

// MarshalJSON encodes the geom as a [pos, stack, orient] triple.
func (g Geom) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{g.Pos, g.Stack, g.Orient})
}

// UnmarshalJSON decodes a [pos, stack, orient] triple.
func (g *Geom) UnmarshalJSON(data []byte) error {
	var t []int
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("decode geom: %w", err)
	}
	if len(t) != 3 {
		return fmt.Errorf("decode geom: want 3 fields, got %d", len(t))
	}
	g.Pos, g.Stack, g.Orient = t[0], t[1], t[2]
	return nil
}

// #endregion geom

// #region board
// Board is an immutable board state: N geoms on a Width x Height grid. The
// geom index identifies a geom across start, goal and search states.
type Board struct {
	Width  int
	Height int
	Geoms  []Geom
}

// #endregion board

// #region invariant-error
// InvariantError reports a board that violates the placement invariants.
type InvariantError struct {
	Index  int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("board invariant violated at geom %d: %s", e.Index, e.Reason)
}

// #endregion invariant-error
