package gate

import "fmt"

// #region gate
// Gate applies the acceptance rule of one bucket and remembers accepted
// pairs. A Gate is not safe for concurrent use; each bucket owns one.
type Gate struct {
	config GateConfig
	seen   map[string]bool
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config, seen: make(map[string]bool)}
}

// Evaluate collects hard vetoes: the optimum must equal L, L - manhattan
// must be a non-negative even number whose half is the bucket's
// interference, and the pair must not have been accepted before.
func (g *Gate) Evaluate(t Trial) GateDecision {
	var vetoes []VetoSignal
	l := g.config.PathLen

	// 1. Optimal length
	switch {
	case t.Optimal < l:
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoShorter,
			Reason: fmt.Sprintf("optimal %d below target %d", t.Optimal, l),
		})
	case t.Optimal > l:
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoLonger,
			Reason: fmt.Sprintf("optimal %d above target %d", t.Optimal, l),
		})
	}

	// 2. Interference
	c2 := 0
	excess := l - t.Manhattan
	switch {
	case excess < 0 || excess%2 != 0:
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoParity,
			Reason: fmt.Sprintf("target %d minus manhattan %d is not a non-negative even number", l, t.Manhattan),
		})
	case excess/2 != g.config.Interference:
		c2 = excess / 2
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoInterference,
			Reason: fmt.Sprintf("c2 %d, bucket wants %d", c2, g.config.Interference),
		})
	default:
		c2 = excess / 2
	}

	// 3. Duplicate, only checked for otherwise acceptable pairs
	if len(vetoes) == 0 && g.seen[t.Hash] {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoDuplicate,
			Reason: fmt.Sprintf("pair %s already accepted", t.Hash),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
			C2:          c2,
			Mismatch:    vetoes[0].Type == VetoLonger && t.Witness,
		}
	}

	g.seen[t.Hash] = true
	return GateDecision{
		Action: "accept",
		Reason: fmt.Sprintf("passed gate: c1=%d c2=%d", t.Optimal, c2),
		C2:     c2,
	}
}

// Accepted is the number of distinct pairs accepted so far.
func (g *Gate) Accepted() int {
	return len(g.seen)
}

// #endregion gate
