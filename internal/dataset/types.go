package dataset

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/board"
)

// ErrExists is returned when a write would replace an existing file.
var ErrExists = errors.New("dataset: file already exists")

// #region identity
// Identity is the visual identity of one geom.
type Identity struct {
	Shape string `json:"shape"`
	Color string `json:"color"`
}

// #endregion identity

// #region instance
// Instance is one accepted puzzle configuration.
type Instance struct {
	ID             string          `json:"config_instance_id"`
	ExperimentType string          `json:"experiment_type"`
	GridSize       [2]int          `json:"grid_size"`
	NumGeoms       int             `json:"num_geoms"`
	C1             int             `json:"c1"`
	C2             int             `json:"c2"`
	StartState     []board.Geom    `json:"start_state"`
	GoalState      []board.Geom    `json:"goal_state"`
	Geoms          []Identity      `json:"geoms"`
	ActionSet      []string        `json:"action_set"`
	OptimalPath    []action.Action `json:"optimal_path"`
}

// Start returns the start board.
func (in Instance) Start() board.Board {
	return board.New(in.GridSize[0], in.GridSize[1], in.StartState)
}

// Goal returns the goal board.
func (in Instance) Goal() board.Board {
	return board.New(in.GridSize[0], in.GridSize[1], in.GoalState)
}

// Actions rebuilds the enabled action set.
func (in Instance) Actions() (action.Set, error) {
	m := make(map[string]bool, len(in.ActionSet))
	for _, n := range in.ActionSet {
		m[n] = true
	}
	return action.FromMap(m)
}

// Bucket is the instance's bucket label without experiment type and sequence.
func (in Instance) Bucket() string {
	return fmt.Sprintf("b_%d_%d_g_%d_c1_%d_c2_%d", in.GridSize[0], in.GridSize[1], in.NumGeoms, in.C1, in.C2)
}

// InstanceID builds "<experiment>_b_<W>_<H>_g_<N>_c1_<c1>_c2_<c2>_i_<seq>".
func InstanceID(experiment string, w, h, n, c1, c2, seq int) string {
	return fmt.Sprintf("%s_b_%d_%d_g_%d_c1_%d_c2_%d_i_%d", experiment, w, h, n, c1, c2, seq)
}

// #endregion instance
