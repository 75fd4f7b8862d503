package solver

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/geomboard/internal/action"
	"github.com/danielpatrickdp/geomboard/internal/board"
	"github.com/danielpatrickdp/geomboard/internal/game"
	"github.com/danielpatrickdp/geomboard/internal/logging"
)

// ctxCheckEvery is how many expansions pass between context checks.
const ctxCheckEvery = 256

// #region solver
// Solver finds optimal action sequences between boards. Positions are
// searched with A* over (position, stack) identity; orientations are then
// reconciled with precomputed flip paths. A Solver is safe for concurrent use.
type Solver struct {
	sys           *game.System
	flips         *FlipTable
	maxExpansions int
	log           logrus.FieldLogger
}

// New builds a Solver over sys.
func New(sys *game.System, opts ...Option) *Solver {
	s := &Solver{sys: sys, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if s.flips == nil {
		s.flips = NewFlipTable()
	}
	return s
}

// Flips exposes the solver's flip table.
func (s *Solver) Flips() *FlipTable { return s.flips }

// #endregion solver

// #region solve
// Solve returns the shortest sequence transforming start into goal using the
// actions enabled in set.
func (s *Solver) Solve(ctx context.Context, start, goal board.Board, set action.Set) (Solution, error) {
	if start.Width != goal.Width || start.Height != goal.Height || start.Len() != goal.Len() {
		return Solution{}, ErrBoardMismatch
	}
	if err := start.Validate(); err != nil {
		return Solution{}, fmt.Errorf("validate start: %w", err)
	}
	if err := goal.Validate(); err != nil {
		return Solution{}, fmt.Errorf("validate goal: %w", err)
	}
	for i, g := range start.Geoms {
		h := goal.Geoms[i]
		if !g.OnBoard() && h.OnBoard() && !set.CanAdd() {
			return Solution{}, ErrNoPathFound
		}
		if g.OnBoard() && !h.OnBoard() && !set.CanRemove() {
			return Solution{}, ErrNoPathFound
		}
	}

	r := &runner{
		sys:   s.sys,
		goal:  goal,
		set:   set,
		limit: s.maxExpansions,
		best:  make(map[string]int),
		done:  make(map[string]bool),
	}
	end, err := r.search(ctx, start)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"start":    start.Flatten(),
			"goal":     goal.Flatten(),
			"expanded": r.expanded,
		}).WithError(err).Debug("search failed")
		return Solution{Expanded: r.expanded}, err
	}

	path := r.path(end)
	flips, err := s.reconcile(r.nodes[end].board, goal, set)
	if err != nil {
		return Solution{Expanded: r.expanded}, err
	}
	return Solution{Actions: append(path, flips...), Expanded: r.expanded}, nil
}

// reconcile appends flip paths, in geom-index order, for every on-board geom
// whose orientation differs from the goal.
func (s *Solver) reconcile(cur, goal board.Board, set action.Set) ([]action.Action, error) {
	var out []action.Action
	for i, g := range cur.Geoms {
		h := goal.Geoms[i]
		if !h.OnBoard() || g.Orient == h.Orient {
			continue
		}
		if !set.Flip {
			return nil, ErrNoPathFound
		}
		dirs := s.flips.Path(g.Orient, h.Orient)
		if dirs == nil {
			return nil, ErrNoPathFound
		}
		for _, d := range dirs {
			out = append(out, action.Action{Kind: action.Flip, Object: i, Dir: d})
		}
	}
	return out, nil
}

// #endregion solve

// #region runner
type node struct {
	board  board.Board
	g      int
	parent int
	act    action.Action
}

type runner struct {
	sys      *game.System
	goal     board.Board
	set      action.Set
	limit    int
	nodes    []node
	best     map[string]int
	done     map[string]bool
	pq       nodePQ
	seq      int
	expanded int
}

func (r *runner) heuristic(b board.Board) int {
	h := b.Manhattan(r.goal)
	for i, g := range b.Geoms {
		if g.OnBoard() != r.goal.Geoms[i].OnBoard() {
			h++
		}
	}
	return h
}

func (r *runner) push(b board.Board, g, parent int, a action.Action) {
	r.nodes = append(r.nodes, node{board: b, g: g, parent: parent, act: a})
	heap.Push(&r.pq, &pqItem{f: g + r.heuristic(b), seq: r.seq, node: len(r.nodes) - 1})
	r.seq++
}

func (r *runner) search(ctx context.Context, start board.Board) (int, error) {
	goalKey := r.goal.PosKey()
	heap.Init(&r.pq)
	r.best[start.PosKey()] = 0
	r.push(start, 0, -1, action.Action{})

	for r.pq.Len() > 0 {
		item := heap.Pop(&r.pq).(*pqItem)
		n := r.nodes[item.node]
		key := n.board.PosKey()
		if r.done[key] || n.g > r.best[key] {
			continue
		}
		if key == goalKey {
			return item.node, nil
		}
		r.done[key] = true

		r.expanded++
		if r.limit > 0 && r.expanded > r.limit {
			return -1, ErrSearchBudget
		}
		if r.expanded%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return -1, fmt.Errorf("solve: %w", err)
			}
		}

		for _, succ := range r.sys.Successors(n.board, r.goal, r.set) {
			k := succ.Board.PosKey()
			if r.done[k] {
				continue
			}
			g := n.g + 1
			if old, seen := r.best[k]; seen && old <= g {
				continue
			}
			r.best[k] = g
			r.push(succ.Board, g, item.node, succ.Action)
		}
	}
	return -1, ErrNoPathFound
}

func (r *runner) path(end int) []action.Action {
	var rev []action.Action
	for i := end; r.nodes[i].parent >= 0; i = r.nodes[i].parent {
		rev = append(rev, r.nodes[i].act)
	}
	out := make([]action.Action, len(rev))
	for i, a := range rev {
		out[len(rev)-1-i] = a
	}
	return out
}

// #endregion runner

// #region priority-queue
type pqItem struct {
	f    int
	seq  int
	node int
}

// nodePQ is a min-heap on f, first-in first-out among equal f.
type nodePQ []*pqItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x any) { *pq = append(*pq, x.(*pqItem)) }

func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// #endregion priority-queue
