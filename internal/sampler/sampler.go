package sampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/board"
	"github.com/danielpatrickdp/geomboard/internal/config"
	"github.com/danielpatrickdp/geomboard/internal/dataset"
	"github.com/danielpatrickdp/geomboard/internal/game"
	"github.com/danielpatrickdp/geomboard/internal/gate"
	"github.com/danielpatrickdp/geomboard/internal/logging"
	"github.com/danielpatrickdp/geomboard/internal/solver"
)

// #region sampler
// Sampler fills every bucket of a parameter file to quota.
type Sampler struct {
	params     *config.Params
	set        action.Set
	identities []dataset.Identity
	sink       Sink
	opts       Options
	sys        *game.System
	solver     *solver.Solver
	log        logrus.FieldLogger
	now        func() time.Time
}

// New validates params and prepares a Sampler writing to sink.
func New(params *config.Params, sink Sink, opts Options, log logrus.FieldLogger) (*Sampler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	set, err := params.Actions()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	var ids []dataset.Identity
	for _, shape := range params.Shapes() {
		for _, color := range params.Colors() {
			ids = append(ids, dataset.Identity{Shape: shape, Color: color})
		}
	}
	sys := game.NewSystem(log)
	return &Sampler{
		params:     params,
		set:        set,
		identities: ids,
		sink:       sink,
		opts:       opts,
		sys:        sys,
		solver:     solver.New(sys, solver.WithMaxExpansions(opts.MaxExpansions), solver.WithLogger(log)),
		log:        log,
		now:        time.Now,
	}, nil
}

// Buckets lists the parameter grid in iteration order: width, height, geom
// count, path length, interference.
func Buckets(p *config.Params) []Bucket {
	gp := p.GameParams
	var out []Bucket
	for _, w := range gp.BoardWidthRange.Values() {
		for _, h := range gp.BoardHeightRange.Values() {
			for _, n := range gp.NumGeomsRange.Values() {
				for _, l := range gp.ShortestSolutionPathRange.Values() {
					for _, f := range gp.PathInterferenceFactorRange.Values() {
						out = append(out, Bucket{Index: len(out), Width: w, Height: h, NumGeoms: n, PathLen: l, Interference: f})
					}
				}
			}
		}
	}
	return out
}

// #endregion sampler

// #region run
// Run fills every feasible bucket. Buckets are independent and may run in
// parallel; each draws from its own stream seeded by (Seed, bucket index), so
// output does not depend on Workers. The first error cancels the run; files
// already written stay on disk.
func (s *Sampler) Run(ctx context.Context) (Summary, error) {
	began := s.now()
	all := Buckets(s.params)
	sum := Summary{Seed: s.opts.Seed}
	results := make([]*BucketSummary, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, b := range all {
		if !b.Feasible() {
			s.log.WithField("bucket", b.String()).Warn("skipping bucket: interference exceeds half the path length")
			sum.Skipped = append(sum.Skipped, b)
			continue
		}
		g.Go(func() error {
			bs, err := s.fill(gctx, b)
			results[b.Index] = bs
			return err
		})
	}
	err := g.Wait()

	for _, bs := range results {
		if bs == nil {
			continue
		}
		sum.Buckets = append(sum.Buckets, *bs)
		sum.Accepted += bs.Accepted
		sum.Trials += bs.Trials
	}
	sum.Elapsed = s.now().Sub(began)
	return sum, err
}

// #endregion run

// #region fill
type bucketRun struct {
	bucket   Bucket
	rng      *rand.Rand
	gate     *gate.Gate
	summary  *BucketSummary
	accepted time.Time
}

func (s *Sampler) fill(ctx context.Context, b Bucket) (*BucketSummary, error) {
	start := s.now()
	br := &bucketRun{
		bucket:   b,
		rng:      rand.New(rand.NewPCG(s.opts.Seed, uint64(b.Index))),
		gate:     gate.NewGate(gate.GateConfig{PathLen: b.PathLen, Interference: b.Interference}),
		summary:  &BucketSummary{Bucket: b, Rejections: make(map[string]int)},
		accepted: start,
	}
	log := s.log.WithField("bucket", b.String())
	quota := s.params.GameParams.InstancesPerConfiguration

	for br.summary.Accepted < quota {
		if err := ctx.Err(); err != nil {
			return br.summary, fmt.Errorf("bucket %s: %w", b, err)
		}
		if s.opts.StallTimeout > 0 && s.now().Sub(br.accepted) > s.opts.StallTimeout {
			log.WithFields(logrus.Fields{
				"trials":   br.summary.Trials,
				"accepted": br.summary.Accepted,
			}).Error("bucket stalled")
			return br.summary, fmt.Errorf("bucket %s: %w", b, ErrStalled)
		}

		br.summary.Trials++
		rec, err := s.trial(ctx, br)
		if err != nil {
			return br.summary, err
		}
		if rec.Decision == DecisionAccept {
			br.summary.Accepted++
			br.accepted = s.now()
		} else {
			br.summary.Rejections[rec.Reason]++
		}
		if s.opts.Recorder != nil {
			if err := s.opts.Recorder.RecordTrial(rec); err != nil {
				return br.summary, fmt.Errorf("record trial: %w", err)
			}
		}
		if s.opts.ProgressEvery > 0 && br.summary.Trials%s.opts.ProgressEvery == 0 {
			log.WithFields(logrus.Fields{
				"trials":   br.summary.Trials,
				"accepted": br.summary.Accepted,
				"rate":     float64(br.summary.Accepted) / float64(br.summary.Trials),
			}).Info("bucket progress")
		}
	}

	br.summary.Elapsed = s.now().Sub(start)
	log.WithFields(logrus.Fields{
		"trials":   br.summary.Trials,
		"accepted": br.summary.Accepted,
	}).Info("bucket filled")
	return br.summary, nil
}

// #endregion fill

// #region trial
// trial runs one sample-synthesise-solve-gate cycle. Only fatal conditions
// are returned as errors; rejections are reported in the record.
func (s *Sampler) trial(ctx context.Context, br *bucketRun) (TrialRecord, error) {
	b := br.bucket
	rec := TrialRecord{Bucket: b.String(), Trial: br.summary.Trials, Decision: DecisionReject}

	start := s.sampleStart(b, br.rng)
	start, goal, witness := s.synthesise(start, b.PathLen, br.rng)
	rec.Hash = board.PairHash(start, goal)
	rec.Manhattan = start.Manhattan(goal)

	sol, err := s.solver.Solve(ctx, start, goal, s.set)
	switch {
	case errors.Is(err, solver.ErrNoPathFound):
		rec.Reason = ReasonNoPath
		return rec, nil
	case errors.Is(err, solver.ErrSearchBudget):
		rec.Reason = ReasonBudget
		return rec, nil
	case err != nil:
		return rec, fmt.Errorf("bucket %s: solve: %w", b, err)
	}
	rec.Optimal = sol.Len()

	decision := br.gate.Evaluate(gate.Trial{
		Optimal:   sol.Len(),
		Manhattan: rec.Manhattan,
		Witness:   witness,
		Hash:      rec.Hash,
	})
	if decision.Mismatch {
		return rec, &MismatchError{Bucket: b, Start: start, Goal: goal, Optimal: sol.Actions, L: b.PathLen}
	}
	if decision.Vetoed {
		rec.Reason = string(decision.VetoSignals[0].Type)
		return rec, nil
	}
	c2 := decision.C2

	seq := br.summary.Accepted
	inst := dataset.Instance{
		ID:             dataset.InstanceID(s.params.Experiment(), b.Width, b.Height, b.NumGeoms, sol.Len(), c2, seq),
		ExperimentType: s.params.Experiment(),
		GridSize:       [2]int{b.Width, b.Height},
		NumGeoms:       b.NumGeoms,
		C1:             sol.Len(),
		C2:             c2,
		StartState:     start.Geoms,
		GoalState:      goal.Geoms,
		Geoms:          s.sampleIdentities(b.NumGeoms, br.rng),
		ActionSet:      s.set.Names(),
		OptimalPath:    sol.Actions,
	}
	if err := s.sink.Write(inst); err != nil {
		return rec, fmt.Errorf("bucket %s: %w", b, err)
	}
	rec.Decision = DecisionAccept
	rec.Instance = inst.ID
	return rec, nil
}

// #endregion trial

// #region synthesis
// sampleStart picks N cells with replacement; a geom's stack level is the
// number of earlier picks of the same cell.
func (s *Sampler) sampleStart(b Bucket, rng *rand.Rand) board.Board {
	cells := b.Width * b.Height
	picks := make(map[int]int, b.NumGeoms)
	geoms := make([]board.Geom, b.NumGeoms)
	for i := range geoms {
		pos := 1 + rng.IntN(cells)
		geoms[i] = board.Geom{Pos: pos, Stack: picks[pos], Orient: 1 + rng.IntN(board.NumOrientations)}
		picks[pos]++
	}
	return board.New(b.Width, b.Height, geoms)
}

// synthesise draws L kinds from the enabled subset of {move, flip, addrmv}.
// Moves and flips are applied to a working copy of start in draw order; each
// addrmv then removes a random geom either from the working copy or, on the
// other half of a coin flip, from start itself. The returned witness flag is
// false when a start-side removal took effect, since the walk then no longer
// proves the goal is reachable in L steps.
func (s *Sampler) synthesise(start board.Board, l int, rng *rand.Rand) (board.Board, board.Board, bool) {
	kinds := s.set.SynthesisKinds()
	goal := start
	addrmv := 0
	for i := 0; i < l; i++ {
		switch k := kinds[rng.IntN(len(kinds))]; k {
		case action.Move, action.Flip:
			goal, _ = s.sys.ApplyRandom(goal, k, rng)
		case action.AddRmv:
			addrmv++
		}
	}
	witness := true
	for i := 0; i < addrmv; i++ {
		if rng.IntN(2) == 0 {
			goal, _ = s.sys.ApplyRandom(goal, action.Remove, rng)
			continue
		}
		next, _ := s.sys.ApplyRandom(start, action.Remove, rng)
		if !next.Equal(start) {
			witness = false
		}
		start = next
	}
	return start, goal, witness
}

// sampleIdentities draws n distinct shape/colour identities.
func (s *Sampler) sampleIdentities(n int, rng *rand.Rand) []dataset.Identity {
	perm := rng.Perm(len(s.identities))
	out := make([]dataset.Identity, n)
	for i := range out {
		out[i] = s.identities[perm[i]]
	}
	return out
}

// #endregion synthesis
