package action

import "fmt"

// #region set
// Set is the enabled action set of a configuration.
type Set struct {
	Move   bool
	Flip   bool
	Add    bool
	Remove bool
	AddRmv bool
}

// FromMap builds a Set from an action_set mapping. Unknown names are an error.
func FromMap(m map[string]bool) (Set, error) {
	var s Set
	for name, on := range m {
		k, err := ParseKind(name)
		if err != nil {
			return Set{}, fmt.Errorf("action set: %w", err)
		}
		switch k {
		case Move:
			s.Move = on
		case Flip:
			s.Flip = on
		case Add:
			s.Add = on
		case Remove:
			s.Remove = on
		case AddRmv:
			s.AddRmv = on
		}
	}
	return s, nil
}

// Only returns a set with exactly the named kinds enabled.
func Only(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		switch k {
		case Move:
			s.Move = true
		case Flip:
			s.Flip = true
		case Add:
			s.Add = true
		case Remove:
			s.Remove = true
		case AddRmv:
			s.AddRmv = true
		}
	}
	return s
}

// CanAdd reports whether geoms may be added.
func (s Set) CanAdd() bool { return s.Add || s.AddRmv }

// CanRemove reports whether geoms may be removed.
func (s Set) CanRemove() bool { return s.Remove || s.AddRmv }

// Allows reports whether an action of kind k may be applied.
func (s Set) Allows(k Kind) bool {
	switch k {
	case Move:
		return s.Move
	case Flip:
		return s.Flip
	case Add:
		return s.CanAdd()
	case Remove:
		return s.CanRemove()
	case AddRmv:
		return s.AddRmv
	}
	return false
}

// Names lists the enabled kinds in canonical order.
func (s Set) Names() []string {
	var out []string
	for _, k := range []Kind{Move, Flip, Add, Remove, AddRmv} {
		if s.enabled(k) {
			out = append(out, k.String())
		}
	}
	return out
}

// SynthesisKinds is the enabled subset of {move, flip, addrmv} used to
// synthesise goals.
func (s Set) SynthesisKinds() []Kind {
	var out []Kind
	for _, k := range []Kind{Move, Flip, AddRmv} {
		if s.enabled(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s Set) enabled(k Kind) bool {
	switch k {
	case Add:
		return s.Add
	case Remove:
		return s.Remove
	}
	return s.Allows(k)
}

// #endregion set
