package board

import (
	"crypto/md5"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

// #region constructor
// New returns a board owning a copy of geoms.
func New(width, height int, geoms []Geom) Board {
	g := make([]Geom, len(geoms))
	copy(g, geoms)
	return Board{Width: width, Height: height, Geoms: g}
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
	return New(b.Width, b.Height, b.Geoms)
}

// With returns a copy of b with geom i replaced by g.
func (b Board) With(i int, g Geom) Board {
	c := b.Clone()
	c.Geoms[i] = g
	return c
}

// Len is the number of geoms.
func (b Board) Len() int { return len(b.Geoms) }

// #endregion constructor

// #region geometry
// Cells is the number of cells on the board.
func (b Board) Cells() int { return b.Width * b.Height }

// RowCol converts a 1-based cell index to 0-based row and column.
func (b Board) RowCol(pos int) (row, col int) {
	return (pos - 1) / b.Width, (pos - 1) % b.Width
}

// Cell converts a 0-based row and column to a 1-based cell index.
func (b Board) Cell(row, col int) int {
	return row*b.Width + col + 1
}

// Step returns the cell one unit from pos in direction d, or false when the
// step leaves the board.
func (b Board) Step(pos int, d Direction) (int, bool) {
	row, col := b.RowCol(pos)
	switch d {
	case Up:
		row--
	case Down:
		row++
	case Left:
		col--
	case Right:
		col++
	default:
		return pos, false
	}
	if row < 0 || row >= b.Height || col < 0 || col >= b.Width {
		return pos, false
	}
	return b.Cell(row, col), true
}

// Distance is the Manhattan distance between two cells.
func (b Board) Distance(p, q int) int {
	r1, c1 := b.RowCol(p)
	r2, c2 := b.RowCol(q)
	return abs(r1-r2) + abs(c1-c2)
}

// TopStack returns the highest stack level at pos among on-board geoms other
// than exclude, or -1 when no such geom is there.
func (b Board) TopStack(pos, exclude int) int {
	top := -1
	for i, g := range b.Geoms {
		if i == exclude || !g.OnBoard() || g.Pos != pos {
			continue
		}
		if g.Stack > top {
			top = g.Stack
		}
	}
	return top
}

// Occupied reports whether any on-board geom sits at pos.
func (b Board) Occupied(pos int) bool {
	return b.TopStack(pos, -1) >= 0
}

// FreeCells lists unoccupied cells in ascending order.
func (b Board) FreeCells() []int {
	used := make([]bool, b.Cells()+1)
	for _, g := range b.Geoms {
		if g.OnBoard() && g.Pos >= 1 && g.Pos <= b.Cells() {
			used[g.Pos] = true
		}
	}
	var free []int
	for p := 1; p <= b.Cells(); p++ {
		if !used[p] {
			free = append(free, p)
		}
	}
	return free
}

// #endregion geometry

// #region validate
// Validate checks the placement invariants: on-board geoms lie inside the
// board with a valid orientation, and no two share a (position, stack) pair.
func (b Board) Validate() error {
	type slot struct{ pos, stack int }
	seen := make(map[slot]int, len(b.Geoms))
	for i, g := range b.Geoms {
		if g.Stack < OffBoard {
			return &InvariantError{Index: i, Reason: "stack level below -1"}
		}
		if !g.OnBoard() {
			continue
		}
		if g.Pos < 1 || g.Pos > b.Cells() {
			return &InvariantError{Index: i, Reason: "position " + strconv.Itoa(g.Pos) + " outside board"}
		}
		if g.Orient < 1 || g.Orient > NumOrientations {
			return &InvariantError{Index: i, Reason: "orientation " + strconv.Itoa(g.Orient) + " out of range"}
		}
		s := slot{g.Pos, g.Stack}
		if j, dup := seen[s]; dup {
			return &InvariantError{Index: i, Reason: "shares position and stack with geom " + strconv.Itoa(j)}
		}
		seen[s] = i
	}
	return nil
}

// #endregion validate

// #region compare
// Equal compares boards index-wise: on-board geoms must match on all three
// fields, off-board geoms only need to be off-board in both.
func (b Board) Equal(o Board) bool {
	if b.Width != o.Width || b.Height != o.Height || len(b.Geoms) != len(o.Geoms) {
		return false
	}
	for i, g := range b.Geoms {
		h := o.Geoms[i]
		if g.OnBoard() != h.OnBoard() {
			return false
		}
		if g.OnBoard() && g != h {
			return false
		}
	}
	return true
}

// PosKey is the search identity of a board: (position, stack) per geom index,
// orientation excluded, off-board geoms normalised.
func (b Board) PosKey() string {
	buf := make([]byte, 0, len(b.Geoms)*4)
	for _, g := range b.Geoms {
		if !g.OnBoard() {
			buf = append(buf, 0xff, 0xff, 0xff, 0xff)
			continue
		}
		buf = append(buf, byte(g.Pos>>8), byte(g.Pos), byte(g.Stack>>8), byte(g.Stack))
	}
	return string(buf)
}

// Manhattan sums the cell distance between b and goal over geoms that are on
// the board in both.
func (b Board) Manhattan(goal Board) int {
	total := 0
	for i, g := range b.Geoms {
		h := goal.Geoms[i]
		if g.OnBoard() && h.OnBoard() {
			total += b.Distance(g.Pos, h.Pos)
		}
	}
	return total
}

// #endregion compare

// #region serialise
// Flatten is the canonical serialisation "WxH|p,s,o;p,s,o;...".
func (b Board) Flatten() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(b.Width))
	sb.WriteByte('x')
	sb.WriteString(strconv.Itoa(b.Height))
	sb.WriteByte('|')
	for i, g := range b.Geoms {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(g.Pos))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(g.Stack))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(g.Orient))
	}
	return sb.String()
}

// PairHash is the MD5 digest of the canonical flattening of (start, goal).
func PairHash(start, goal Board) string {
	sum := md5.Sum([]byte(start.Flatten() + "=>" + goal.Flatten()))
	return hex.EncodeToString(sum[:])
}

// String renders the board as a grid; each cell lists "index:stack@orient"
// for the geoms stacked there, bottom first, "." when empty. Off-board geoms
// are listed after the grid.
func (b Board) String() string {
	var sb strings.Builder
	var off []string
	for row := 0; row < b.Height; row++ {
		for col := 0; col < b.Width; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.cellLabel(b.Cell(row, col)))
		}
		sb.WriteByte('\n')
	}
	for i, g := range b.Geoms {
		if !g.OnBoard() {
			off = append(off, strconv.Itoa(i))
		}
	}
	if len(off) > 0 {
		sb.WriteString("off: " + strings.Join(off, ","))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b Board) cellLabel(pos int) string {
	var here []int
	for i, g := range b.Geoms {
		if g.OnBoard() && g.Pos == pos {
			here = append(here, i)
		}
	}
	if len(here) == 0 {
		return "."
	}
	slices.SortStableFunc(here, func(i, j int) int { return b.Geoms[i].Stack - b.Geoms[j].Stack })
	parts := make([]string, len(here))
	for k, i := range here {
		g := b.Geoms[i]
		parts[k] = strconv.Itoa(i) + ":" + strconv.Itoa(g.Stack) + "@" + strconv.Itoa(g.Orient)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// #endregion serialise

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
