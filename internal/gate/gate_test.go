package gate

import "testing"

func bucketGate() *Gate {
	return NewGate(GateConfig{PathLen: 4, Interference: 1})
}

func TestGateAcceptsOnTarget(t *testing.T) {
	g := bucketGate()

	decision := g.Evaluate(Trial{Optimal: 4, Manhattan: 2, Hash: "a"})

	if decision.Action != "accept" {
		t.Fatalf("expected accept, got %s: %s", decision.Action, decision.Reason)
	}
	if decision.Vetoed {
		t.Fatal("should not be vetoed")
	}
	if decision.C2 != 1 {
		t.Fatalf("expected c2 1, got %d", decision.C2)
	}
	if g.Accepted() != 1 {
		t.Fatalf("expected 1 accepted, got %d", g.Accepted())
	}
}

func TestGateRejectsShorter(t *testing.T) {
	decision := bucketGate().Evaluate(Trial{Optimal: 3, Manhattan: 1, Hash: "a"})

	if decision.Action != "reject" {
		t.Fatalf("expected reject, got %s", decision.Action)
	}
	if decision.VetoSignals[0].Type != VetoShorter {
		t.Fatalf("expected VetoShorter, got %s", decision.VetoSignals[0].Type)
	}
	if decision.Mismatch {
		t.Fatal("shorter optimum is never a mismatch")
	}
}

func TestGateLongerMismatchNeedsWitness(t *testing.T) {
	g := bucketGate()

	decision := g.Evaluate(Trial{Optimal: 5, Manhattan: 2, Hash: "a"})
	if decision.VetoSignals[0].Type != VetoLonger {
		t.Fatalf("expected VetoLonger, got %s", decision.VetoSignals[0].Type)
	}
	if decision.Mismatch {
		t.Fatal("expected no mismatch without a witness")
	}

	decision = g.Evaluate(Trial{Optimal: 5, Manhattan: 2, Witness: true, Hash: "a"})
	if !decision.Mismatch {
		t.Fatal("expected mismatch with a witness")
	}
}

func TestGateRejectsInterferenceMismatch(t *testing.T) {
	decision := bucketGate().Evaluate(Trial{Optimal: 4, Manhattan: 4, Hash: "a"})

	if decision.VetoSignals[0].Type != VetoInterference {
		t.Fatalf("expected VetoInterference, got %s", decision.VetoSignals[0].Type)
	}
	if decision.C2 != 0 {
		t.Fatalf("expected c2 0, got %d", decision.C2)
	}
}

func TestGateRejectsParity(t *testing.T) {
	// Manhattan above the target.
	decision := bucketGate().Evaluate(Trial{Optimal: 4, Manhattan: 6, Hash: "a"})
	if decision.VetoSignals[0].Type != VetoParity {
		t.Fatalf("expected VetoParity, got %s", decision.VetoSignals[0].Type)
	}

	// Odd excess over the Manhattan bound can never land in a bucket.
	odd := NewGate(GateConfig{PathLen: 5, Interference: 1})
	decision = odd.Evaluate(Trial{Optimal: 5, Manhattan: 2, Hash: "a"})
	if decision.VetoSignals[0].Type != VetoParity {
		t.Fatalf("expected VetoParity, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateMultipleVetoes(t *testing.T) {
	decision := bucketGate().Evaluate(Trial{Optimal: 2, Manhattan: 1, Hash: "a"})

	if len(decision.VetoSignals) != 2 {
		t.Fatalf("expected 2 vetoes, got %d", len(decision.VetoSignals))
	}
	if decision.VetoSignals[0].Type != VetoShorter || decision.VetoSignals[1].Type != VetoParity {
		t.Fatalf("unexpected veto order: %+v", decision.VetoSignals)
	}
	if decision.Reason != "hard veto: optimal 2 below target 4" {
		t.Fatalf("unexpected reason: %s", decision.Reason)
	}
}

func TestGateRejectsDuplicate(t *testing.T) {
	g := bucketGate()
	if d := g.Evaluate(Trial{Optimal: 4, Manhattan: 2, Hash: "a"}); d.Action != "accept" {
		t.Fatalf("expected first accept, got %s", d.Reason)
	}

	decision := g.Evaluate(Trial{Optimal: 4, Manhattan: 2, Hash: "a"})
	if decision.Action != "reject" || decision.VetoSignals[0].Type != VetoDuplicate {
		t.Fatalf("expected duplicate reject, got %+v", decision)
	}

	// A rejected pair is not remembered.
	g.Evaluate(Trial{Optimal: 3, Manhattan: 1, Hash: "b"})
	if d := g.Evaluate(Trial{Optimal: 4, Manhattan: 2, Hash: "b"}); d.Action != "accept" {
		t.Fatalf("expected accept for previously rejected pair, got %s", d.Reason)
	}
	if g.Accepted() != 2 {
		t.Fatalf("expected 2 accepted, got %d", g.Accepted())
	}
}
