package episode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/agent"
	"github.com/danielpatrickdp/geomboard/internal/board"
	"github.com/danielpatrickdp/geomboard/internal/dataset"
)

// #region helpers
func testInstance() dataset.Instance {
	return dataset.Instance{
		ID:             "geom_board_b_4_4_g_2_c1_2_c2_0_i_0",
		ExperimentType: "geom_board",
		GridSize:       [2]int{4, 4},
		NumGeoms:       2,
		C1:             2,
		StartState:     []board.Geom{{Pos: 1, Stack: 0, Orient: 1}, {Pos: 5, Stack: 0, Orient: 1}},
		GoalState:      []board.Geom{{Pos: 2, Stack: 0, Orient: 1}, {Pos: 5, Stack: -1, Orient: 1}},
		Geoms:          []dataset.Identity{{Shape: "cube", Color: "red"}, {Shape: "sphere", Color: "blue"}},
		ActionSet:      []string{"move", "addrmv"},
		OptimalPath: []action.Action{
			{Kind: action.Move, Object: 0, Dir: board.Right},
			{Kind: action.Remove, Object: 1, Dir: board.NoDirection},
		},
	}
}

type scriptedAgent struct {
	replies []string
	err     error
	seen    []agent.Observation
}

func (s *scriptedAgent) NextAction(_ context.Context, obs agent.Observation) (agent.Reply, error) {
	s.seen = append(s.seen, obs)
	if s.err != nil {
		return agent.Reply{}, s.err
	}
	if len(s.replies) == 0 {
		return agent.Reply{Action: "pass"}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return agent.Reply{Action: r}, nil
}

type memRecorder struct{ steps []Step }

func (m *memRecorder) RecordStep(s Step) error {
	m.steps = append(m.steps, s)
	return nil
}

// #endregion helpers

// #region oracle-tests
func TestRun_OracleSolves(t *testing.T) {
	inst := testInstance()
	rec := &memRecorder{}
	r := NewRunner(DefaultConfig(), rec, nil)

	res, err := r.Run(context.Background(), inst, NewOracleAgent(inst.OptimalPath))
	require.NoError(t, err)
	assert.True(t, res.Solved)
	assert.Equal(t, 2, res.Steps)
	assert.Zero(t, res.InvalidActions)
	assert.Equal(t, 10, res.Budget)
	assert.NotEmpty(t, res.EpisodeID)

	require.Len(t, rec.steps, 2)
	assert.Equal(t, "move 0 right", rec.steps[0].Action)
	assert.True(t, rec.steps[0].Valid)
	assert.Equal(t, inst.Goal().Flatten(), rec.steps[1].Board)
}

func TestRun_AlreadySolved(t *testing.T) {
	inst := testInstance()
	inst.GoalState = inst.StartState
	res, err := NewRunner(DefaultConfig(), nil, nil).Run(context.Background(), inst, &scriptedAgent{})
	require.NoError(t, err)
	assert.True(t, res.Solved)
	assert.Zero(t, res.Steps)
}

// #endregion oracle-tests

// #region invalid-tests
func TestRun_RetriesUnparsable(t *testing.T) {
	inst := testInstance()
	ag := &scriptedAgent{replies: []string{"slide right", "move 0 right", "remove 1"}}
	rec := &memRecorder{}
	res, err := NewRunner(DefaultConfig(), rec, nil).Run(context.Background(), inst, ag)
	require.NoError(t, err)
	assert.True(t, res.Solved)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 1, res.ParseFailures)
	assert.Zero(t, res.InvalidActions)
	assert.Equal(t, 1, rec.steps[0].Attempt)
	assert.NotEmpty(t, ag.seen[1].LastError, "retry sees the parse error")
}

func TestRun_ParseRetriesExhausted(t *testing.T) {
	inst := testInstance()
	cfg := DefaultConfig()
	cfg.MinSteps = 1
	cfg.MaxStepsFactor = 0
	ag := &scriptedAgent{replies: []string{"a", "b", "c"}}
	res, err := NewRunner(cfg, nil, nil).Run(context.Background(), inst, ag)
	require.NoError(t, err)
	assert.False(t, res.Solved)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, 3, res.ParseFailures)
	assert.Equal(t, 1, res.InvalidActions)
	assert.Len(t, ag.seen, 3)
}

func TestRun_InvalidActionsCostSteps(t *testing.T) {
	inst := testInstance()
	ag := &scriptedAgent{replies: []string{
		"flip 0 up",     // flip disabled
		"move 7 up",     // no such geom
		"move 0 up",     // off the board
		"move 0 right",
		"remove 1",
	}}
	rec := &memRecorder{}
	res, err := NewRunner(DefaultConfig(), rec, nil).Run(context.Background(), inst, ag)
	require.NoError(t, err)
	assert.True(t, res.Solved)
	assert.Equal(t, 5, res.Steps)
	assert.Equal(t, 3, res.InvalidActions)
	assert.Equal(t, "action had no effect", rec.steps[2].Error)
	assert.Equal(t, "action had no effect", ag.seen[3].LastError)
}

func TestRun_BudgetExhausted(t *testing.T) {
	inst := testInstance()
	cfg := Config{MaxStepsFactor: 2, MinSteps: 1, ParseRetries: 0}
	ag := &scriptedAgent{replies: []string{"move 0 down", "move 0 up", "move 0 down", "move 0 up"}}
	res, err := NewRunner(cfg, nil, nil).Run(context.Background(), inst, ag)
	require.NoError(t, err)
	assert.False(t, res.Solved)
	assert.Equal(t, 4, res.Steps)
	assert.Equal(t, 4, res.Budget)
}

func TestRun_AgentError(t *testing.T) {
	boom := errors.New("unavailable")
	_, err := NewRunner(DefaultConfig(), nil, nil).Run(context.Background(), testInstance(), &scriptedAgent{err: boom})
	assert.ErrorIs(t, err, boom)
}

// #endregion invalid-tests

func TestConfig_Budget(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.Budget(2))
	assert.Equal(t, 15, cfg.Budget(5))
}
