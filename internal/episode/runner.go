package episode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/agent"
	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/game"
	"github.com/danielpatrickdp/geomboard/internal/logging"
)

// #region runner
// Runner plays instances against an agent on the local simulator. Adds are
// goal-directed, matching the semantics the dataset's optimal paths assume.
type Runner struct {
	cfg Config
	sys *game.System
	rec StepRecorder
	log logrus.FieldLogger
}

// NewRunner builds a Runner. rec may be nil.
func NewRunner(cfg Config, rec StepRecorder, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{cfg: cfg, sys: game.NewSystem(log), rec: rec, log: log}
}

// #endregion runner

// #region run
// Run plays one episode. Agent transport errors abort the episode; bad
// replies only cost a step.
func (r *Runner) Run(ctx context.Context, inst dataset.Instance, ag Agent) (Result, error) {
	began := time.Now()
	set, err := inst.Actions()
	if err != nil {
		return Result{}, fmt.Errorf("episode %s: %w", inst.ID, err)
	}
	cur, goal := inst.Start(), inst.Goal()
	res := Result{
		EpisodeID:  uuid.New().String(),
		InstanceID: inst.ID,
		Optimal:    inst.C1,
		Budget:     r.cfg.Budget(inst.C1),
	}
	log := r.log.WithFields(logrus.Fields{"episode": res.EpisodeID, "instance": inst.ID})
	ids := make([]string, len(inst.Geoms))
	for i, g := range inst.Geoms {
		ids[i] = fmt.Sprintf("%d: %s %s", i, g.Color, g.Shape)
	}

	lastErr := ""
	for res.Steps < res.Budget && !cur.Equal(goal) {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("episode %s: %w", res.EpisodeID, err)
		}
		obs := agent.Observation{
			InstanceID: inst.ID,
			Step:       res.Steps,
			Current:    cur.String(),
			Goal:       goal.String(),
			Geoms:      ids,
			Actions:    set.Names(),
			LastError:  lastErr,
		}

		step := Step{EpisodeID: res.EpisodeID, InstanceID: inst.ID, Index: res.Steps}
		var a action.Action
		parsed := false
		for attempt := 0; attempt <= r.cfg.ParseRetries; attempt++ {
			reply, err := ag.NextAction(ctx, obs)
			if err != nil {
				return res, fmt.Errorf("episode %s step %d: %w", res.EpisodeID, res.Steps, err)
			}
			step.Attempt, step.Reply = attempt, reply.Action
			a, err = action.Parse(reply.Action)
			if err == nil {
				parsed = true
				break
			}
			res.ParseFailures++
			obs.LastError = err.Error()
			log.WithField("reply", reply.Action).Debug("unparsable reply")
		}

		res.Steps++
		switch {
		case !parsed:
			step.Error = obs.LastError
		case !set.Allows(a.Kind):
			step.Error = fmt.Sprintf("%s is not enabled", a.Kind)
		case a.Object >= cur.Len():
			step.Error = fmt.Sprintf("geom %d does not exist", a.Object)
		default:
			step.Action = a.String()
			next := r.sys.ApplyToward(cur, a, goal)
			if next.Equal(cur) {
				step.Error = "action had no effect"
			} else {
				cur = next
				step.Valid = true
			}
		}
		if !step.Valid {
			res.InvalidActions++
		}
		lastErr = step.Error
		step.Board = cur.Flatten()
		step.CreatedAt = time.Now().UTC()
		if r.rec != nil {
			if err := r.rec.RecordStep(step); err != nil {
				return res, fmt.Errorf("record step: %w", err)
			}
		}
	}

	res.Final = cur
	res.Solved = cur.Equal(goal)
	res.Elapsed = time.Since(began)
	log.WithFields(logrus.Fields{
		"solved":  res.Solved,
		"steps":   res.Steps,
		"invalid": res.InvalidActions,
	}).Info("episode finished")
	return res, nil
}

// #endregion run

// #region oracle
// OracleAgent replays a fixed action sequence, normally an instance's
// optimal path. It is the reference baseline for episode metrics.
type OracleAgent struct {
	path []action.Action
	next int
}

// NewOracleAgent plays path in order.
func NewOracleAgent(path []action.Action) *OracleAgent {
	return &OracleAgent{path: path}
}

// NextAction returns the next action of the path, or an empty reply once the
// path is exhausted.
func (o *OracleAgent) NextAction(_ context.Context, _ agent.Observation) (agent.Reply, error) {
	if o.next >= len(o.path) {
		return agent.Reply{}, nil
	}
	a := o.path[o.next]
	o.next++
	return agent.Reply{Action: a.String(), Reasoning: "optimal path"}, nil
}

// #endregion oracle
