package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/geomboard/internal/action"
)

// #region load
// Load reads a parameter file. Files ending in .yaml or .yml are parsed as
// YAML, everything else as JSON. Unknown fields are rejected.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON parameter document.
func ParseJSON(data []byte) (*Params, error) {
	var p Params
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return &p, nil
}

// ParseYAML decodes a YAML parameter document.
func ParseYAML(data []byte) (*Params, error) {
	var p Params
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return &p, nil
}

// #endregion load

// #region accessors
// Experiment returns the experiment type used in instance ids, falling back
// to the game type.
func (p *Params) Experiment() string {
	if p.ExperimentType != "" {
		return p.ExperimentType
	}
	return p.GameType
}

// Actions returns the enabled action set.
func (p *Params) Actions() (action.Set, error) {
	return action.FromMap(p.GameParams.ActionSet)
}

// Shapes lists enabled shape names, sorted.
func (p *Params) Shapes() []string { return enabled(p.GameParams.ShapeSet) }

// Colors lists enabled colour names, sorted.
func (p *Params) Colors() []string { return enabled(p.GameParams.ColorSet) }

// WithSeed returns a copy of p recording seed.
func (p *Params) WithSeed(seed uint64) *Params {
	c := *p
	c.Seed = &seed
	return &c
}

func enabled(m map[string]bool) []string {
	var out []string
	for k, on := range m {
		if on {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// #endregion accessors

// #region validate
// Validate checks the parameter file before any sampling happens. The first
// problem found is returned as a *ConfigError.
func (p *Params) Validate() error {
	gp := p.GameParams
	if p.ConfigID == "" {
		return fieldErr("config_id", "must not be empty")
	}
	if strings.ContainsAny(p.ConfigID, `/\`) {
		return fieldErr("config_id", "must not contain path separators")
	}
	if p.ConfigID == "." || p.ConfigID == ".." {
		return fieldErr("config_id", "must name a directory below the output root, got %q", p.ConfigID)
	}
	if p.GameType != GameType {
		return fieldErr("game_type", "must be %q, got %q", GameType, p.GameType)
	}

	for _, c := range []struct {
		field string
		r     Range
		min   int
	}{
		{"board_width_range", gp.BoardWidthRange, 1},
		{"board_height_range", gp.BoardHeightRange, 1},
		{"num_geoms_range", gp.NumGeomsRange, 1},
		{"shortest_solution_path_range", gp.ShortestSolutionPathRange, 1},
		{"path_interference_factor_range", gp.PathInterferenceFactorRange, 0},
	} {
		if c.r.Min > c.r.Max {
			return fieldErr(c.field, "empty range [%d, %d]", c.r.Min, c.r.Max)
		}
		if c.r.Min < c.min {
			return fieldErr(c.field, "minimum must be at least %d, got %d", c.min, c.r.Min)
		}
	}
	if gp.InstancesPerConfiguration <= 0 {
		return fieldErr("instances_per_configuration", "must be positive, got %d", gp.InstancesPerConfiguration)
	}

	set, err := p.Actions()
	if err != nil {
		return fieldErr("action_set", "%v", err)
	}
	if len(set.SynthesisKinds()) == 0 {
		return fieldErr("action_set", "at least one of move, flip, addrmv must be enabled")
	}

	shapes, colors := p.Shapes(), p.Colors()
	if len(shapes) == 0 {
		return fieldErr("shape_set", "at least one shape must be enabled")
	}
	if len(colors) == 0 {
		return fieldErr("color_set", "at least one colour must be enabled")
	}
	if maxN := gp.NumGeomsRange.Max; maxN > len(shapes)*len(colors) {
		return fieldErr("num_geoms_range", "%d geoms exceed %d shape/colour identities", maxN, len(shapes)*len(colors))
	}

	k := big.NewInt(int64(gp.InstancesPerConfiguration))
	for _, w := range gp.BoardWidthRange.Values() {
		for _, h := range gp.BoardHeightRange.Values() {
			for _, n := range gp.NumGeomsRange.Values() {
				if n > w*h {
					return fieldErr("num_geoms_range", "%d geoms do not fit a %dx%d board", n, w, h)
				}
				if capacity := StartCapacity(w*h, n); capacity.Cmp(k) < 0 {
					return fieldErr("instances_per_configuration",
						"%d instances exceed the %s distinct starts of a %dx%d board with %d geoms", k, capacity, w, h, n)
				}
			}
		}
	}
	return nil
}

// StartCapacity is the number of start position multisets, C(cells+n-1, n).
func StartCapacity(cells, n int) *big.Int {
	return new(big.Int).Binomial(int64(cells+n-1), int64(n))
}

// #endregion validate
