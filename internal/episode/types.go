package episode

import (
	"context"
	"time"

	"github.com/danielpatrickdp/geomboard/internal/agent"
	"github.com/danielpatrickdp/geomboard/internal/board"
)

// #region config
// Config bounds an episode.
type Config struct {
	MaxStepsFactor int // step budget is MaxStepsFactor * c1
	MinSteps       int // lower bound on the step budget
	ParseRetries   int // extra asks per step when the reply does not parse
}

// DefaultConfig returns a budget of three times the optimal length, at least
// ten steps, with two parse retries.
func DefaultConfig() Config {
	return Config{
		MaxStepsFactor: 3,
		MinSteps:       10,
		ParseRetries:   2,
	}
}

// Budget is the step budget for an instance with optimal length c1.
func (c Config) Budget(c1 int) int {
	return max(c.MaxStepsFactor*c1, c.MinSteps)
}

// #endregion config

// #region agent
// Agent chooses actions. *agent.Client is the remote implementation.
type Agent interface {
	NextAction(ctx context.Context, obs agent.Observation) (agent.Reply, error)
}

// StepRecorder persists episode steps.
type StepRecorder interface {
	RecordStep(Step) error
}

// #endregion agent

// #region step
// Step is one agent turn. Valid is false when the reply did not parse, named
// a disabled kind, or had no effect on the board.
type Step struct {
	EpisodeID  string
	InstanceID string
	Index      int
	Attempt    int
	Reply      string
	Action     string
	Valid      bool
	Error      string
	Board      string
	CreatedAt  time.Time
}

// #endregion step

// #region result
// Result summarises one episode.
type Result struct {
	EpisodeID      string
	InstanceID     string
	Solved         bool
	Steps          int
	InvalidActions int
	ParseFailures  int
	Optimal        int
	Budget         int
	Final          board.Board
	Elapsed        time.Duration
}

// #endregion result
