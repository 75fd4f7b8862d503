package config

import "fmt"

// GameType is the only supported game.
const GameType = "geom_board"

// #region params
// Params is a dataset parameter file.
type Params struct {
	ConfigID       string     `json:"config_id" yaml:"config_id"`
	Description    string     `json:"description" yaml:"description"`
	GameType       string     `json:"game_type" yaml:"game_type"`
	ExperimentType string     `json:"experiment_type,omitempty" yaml:"experiment_type,omitempty"`
	Seed           *uint64    `json:"seed,omitempty" yaml:"seed,omitempty"`
	GameParams     GameParams `json:"game_params" yaml:"game_params"`
}

// GameParams holds the sampling ranges and enabled sets.
type GameParams struct {
	BoardWidthRange             Range           `json:"board_width_range" yaml:"board_width_range"`
	BoardHeightRange            Range           `json:"board_height_range" yaml:"board_height_range"`
	NumGeomsRange               Range           `json:"num_geoms_range" yaml:"num_geoms_range"`
	ShortestSolutionPathRange   Range           `json:"shortest_solution_path_range" yaml:"shortest_solution_path_range"`
	PathInterferenceFactorRange Range           `json:"path_interference_factor_range" yaml:"path_interference_factor_range"`
	InstancesPerConfiguration   int             `json:"instances_per_configuration" yaml:"instances_per_configuration"`
	ActionSet                   map[string]bool `json:"action_set" yaml:"action_set"`
	ShapeSet                    map[string]bool `json:"shape_set" yaml:"shape_set"`
	ColorSet                    map[string]bool `json:"color_set" yaml:"color_set"`
}

// #endregion params

// #region range
// Range is an inclusive integer range.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Values lists the range in ascending order; empty when Min > Max.
func (r Range) Values() []int {
	if r.Min > r.Max {
		return nil
	}
	out := make([]int, 0, r.Max-r.Min+1)
	for v := r.Min; v <= r.Max; v++ {
		out = append(out, v)
	}
	return out
}

// #endregion range

// #region config-error
// ConfigError reports a malformed or infeasible parameter file.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func fieldErr(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// #endregion config-error
