package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/geomboard/internal/dataset"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a set of
// instances and the outcome expected for each.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Instances       []dataset.Instance      `json:"instances"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig mirrors ReplayConfig with JSON tags.
type FixtureConfig struct {
	CheckOptimal  bool `json:"check_optimal"`
	MaxExpansions int  `json:"max_expansions"`
}

// FixtureExpectedResult captures the expected outcome per instance.
type FixtureExpectedResult struct {
	InstanceID string `json:"instance_id"`
	Action     string `json:"action"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToReplayConfig converts a FixtureConfig to a ReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	return ReplayConfig{
		CheckOptimal:  fc.CheckOptimal,
		MaxExpansions: fc.MaxExpansions,
	}
}

// Check compares results against the fixture's expectations and returns one
// message per difference.
func (f *Fixture) Check(results []ReplayResult) []string {
	got := make(map[string]string, len(results))
	for _, r := range results {
		got[r.InstanceID] = r.Action
	}
	var diffs []string
	if len(results) != len(f.ExpectedResults) {
		diffs = append(diffs, fmt.Sprintf("expected %d results, got %d", len(f.ExpectedResults), len(results)))
	}
	for _, exp := range f.ExpectedResults {
		action, ok := got[exp.InstanceID]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("%s: no result", exp.InstanceID))
		case action != exp.Action:
			diffs = append(diffs, fmt.Sprintf("%s: expected %s, got %s", exp.InstanceID, exp.Action, action))
		}
	}
	return diffs
}

// #endregion fixture-loader
