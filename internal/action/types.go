package action

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/geomboard/internal/board"
)

// #region kind
// Kind is the action type.
type Kind int

const (
	Move Kind = iota
	Flip
	Add
	Remove

	// AddRmv is the composite add/remove kind. It only exists in action-set
	// configuration and goal synthesis; it is never applied directly.
	AddRmv
)

var kindNames = [...]string{"move", "flip", "add", "remove", "addrmv"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action kind %q", s)
}

// Directional reports whether actions of this kind carry a direction.
func (k Kind) Directional() bool { return k == Move || k == Flip }

// #endregion kind

// #region action
// Action is one applied step: a kind, the geom index it targets and, for move
// and flip, a direction.
type Action struct {
	Kind   Kind
	Object int
	Dir    board.Direction
}

// String renders "<kind> <i>[ <direction>]".
func (a Action) String() string {
	s := a.Kind.String() + " " + strconv.Itoa(a.Object)
	if a.Kind.Directional() {
		s += " " + a.Dir.String()
	}
	return s
}

// Parse reads an action rendered by Action.String.
func Parse(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return Action{}, fmt.Errorf("parse action %q: want \"<kind> <index>[ <direction>]\"", s)
	}
	kind, err := ParseKind(fields[0])
	if err != nil || kind == AddRmv {
		return Action{}, fmt.Errorf("parse action %q: unknown kind", s)
	}
	idx, err := strconv.Atoi(fields[1])
	if err != nil || idx < 0 {
		return Action{}, fmt.Errorf("parse action %q: bad geom index", s)
	}
	a := Action{Kind: kind, Object: idx, Dir: board.NoDirection}
	switch {
	case kind.Directional() && len(fields) == 3:
		d, err := board.ParseDirection(fields[2])
		if err != nil {
			return Action{}, fmt.Errorf("parse action %q: %w", s, err)
		}
		a.Dir = d
	case !kind.Directional() && len(fields) == 2:
	default:
		return Action{}, fmt.Errorf("parse action %q: wrong number of fields", s)
	}
	return a, nil
}

// MarshalText encodes the action as its string form.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes the string form.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// #endregion action
