package solver

import (
	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/board"
)

// #region flip-table
// FlipTable holds the shortest flip direction sequence between every pair of
// orientations. Paths are the lexicographically first among the shortest,
// with directions ordered up, down, left, right.
type FlipTable struct {
	paths [board.NumOrientations + 1][board.NumOrientations + 1][]board.Direction
}

// NewFlipTable runs a breadth-first search from every orientation over the
// flip transitions.
func NewFlipTable() *FlipTable {
	ft := &FlipTable{}
	for from := 1; from <= board.NumOrientations; from++ {
		seen := [board.NumOrientations + 1]bool{}
		seen[from] = true
		ft.paths[from][from] = []board.Direction{}
		queue := []int{from}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, d := range board.Directions {
				next := action.FlipTransition(cur, d)
				if seen[next] {
					continue
				}
				seen[next] = true
				p := make([]board.Direction, len(ft.paths[from][cur])+1)
				copy(p, ft.paths[from][cur])
				p[len(p)-1] = d
				ft.paths[from][next] = p
				queue = append(queue, next)
			}
		}
	}
	return ft
}

// Path returns the flip directions turning orientation from into to. The
// result is nil when either orientation is out of range or unreachable.
func (ft *FlipTable) Path(from, to int) []board.Direction {
	if from < 1 || from > board.NumOrientations || to < 1 || to > board.NumOrientations {
		return nil
	}
	return ft.paths[from][to]
}

// Distance is len(Path(from, to)), or -1 when no path exists.
func (ft *FlipTable) Distance(from, to int) int {
	p := ft.Path(from, to)
	if p == nil {
		return -1
	}
	return len(p)
}

// #endregion flip-table
