package action

import "github.com/danielpatrickdp/geomboard/internal/board"

// #region flip-transitions
// flipTransitions[o-1][d] is the orientation reached by flipping orientation o
// in direction d (up, down, left, right). The twelve orientations are the
// rotations of a geom modulo its half-turn symmetry. No flip leaves an
// orientation unchanged and the graph has diameter 3.
var flipTransitions = [board.NumOrientations][4]int{
	{2, 3, 8, 5},
	{6, 1, 7, 7},
	{1, 6, 4, 4},
	{12, 11, 3, 3},
	{10, 10, 1, 6},
	{3, 2, 5, 8},
	{11, 12, 2, 2},
	{9, 9, 6, 1},
	{8, 8, 11, 12},
	{5, 5, 12, 11},
	{4, 7, 10, 9},
	{7, 4, 9, 10},
}

// FlipTransition returns the orientation reached by flipping o in direction
// d, or o itself when either argument is out of range.
func FlipTransition(o int, d board.Direction) int {
	if o < 1 || o > board.NumOrientations || d < board.Up || d > board.Right {
		return o
	}
	return flipTransitions[o-1][d]
}

// #endregion flip-transitions
