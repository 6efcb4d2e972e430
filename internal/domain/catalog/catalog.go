// Package catalog provides the static, read-only scenario definitions.
//
// Scenarios are declared in a versioned YAML document. The default document
// is embedded in the binary; an alternative file can be supplied at startup.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/okian/drivemind/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// UnknownScenarioName is reported by Lookup callers for ids outside the catalog.
const UnknownScenarioName = "Unknown Scenario"

//go:embed scenarios.yaml
var defaultDocument []byte

// document is the on-disk layout of a catalog.
type document struct {
	Version   int              `yaml:"version"`
	Scenarios []model.Scenario `yaml:"scenarios"`
}

// Catalog holds an immutable, ordered set of scenarios.
type Catalog struct {
	version   int
	scenarios []model.Scenario
	byID      map[int]int // id -> index into scenarios
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(doc.Version, doc.Scenarios)
}

// New builds a catalog from already decoded scenarios.
func New(version int, scenarios []model.Scenario) (*Catalog, error) {
	c := &Catalog{
		version:   version,
		scenarios: make([]model.Scenario, 0, len(scenarios)),
		byID:      make(map[int]int, len(scenarios)),
	}
	for _, s := range scenarios {
		if err := validate(s); err != nil {
			return nil, err
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate scenario id %d", ErrInvalidCatalog, s.ID)
		}
		c.byID[s.ID] = len(c.scenarios)
		c.scenarios = append(c.scenarios, clone(s))
	}
	return c, nil
}

// Version returns the catalog document version.
func (c *Catalog) Version() int { return c.version }

// Len returns the number of scenarios.
func (c *Catalog) Len() int { return len(c.scenarios) }

// List returns all scenarios in declaration order.
func (c *Catalog) List() []model.Scenario {
	out := make([]model.Scenario, len(c.scenarios))
	for i, s := range c.scenarios {
		out[i] = clone(s)
	}
	return out
}

// IDs returns the scenario ids in ascending order.
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Get returns the scenario with id, or ErrNotFound.
func (c *Catalog) Get(id int) (model.Scenario, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Scenario{}, fmt.Errorf("scenario %d: %w", id, ErrNotFound)
	}
	return clone(c.scenarios[i]), nil
}

// Lookup returns the name of scenario id.
func (c *Catalog) Lookup(id int) (string, bool) {
	i, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return c.scenarios[i].Name, true
}

func validate(s model.Scenario) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: scenario %d: %s", ErrInvalidCatalog, s.ID, fmt.Sprintf(format, args...))
	}
	switch {
	case s.ID <= 0:
		return fail("id must be positive")
	case s.Name == "":
		return fail("missing name")
	case !s.Difficulty.Valid():
		return fail("unknown difficulty %q", s.Difficulty)
	case s.Duration <= 0:
		return fail("duration must be positive")
	case len(s.PsychologyInsights) == 0:
		return fail("at least one psychology insight is required")
	}
	prev := 0
	for i, d := range s.Decisions {
		if d.Time < 0 || d.Time > s.Duration {
			return fail("decision %d: time %d outside [0,%d]", i, d.Time, s.Duration)
		}
		if d.Time < prev {
			return fail("decision %d: times must be ascending", i)
		}
		prev = d.Time
		if len(d.Options) == 0 {
			return fail("decision %d: no options", i)
		}
		for j, o := range d.Options {
			if o.Label == "" {
				return fail("decision %d option %d: missing label", i, j)
			}
			switch o.Category {
			case model.CategorySafe, model.CategoryRisky, model.CategoryNeutral:
			default:
				return fail("decision %d option %d: unknown type %q", i, j, o.Category)
			}
		}
	}
	return nil
}

// clone copies the slices of s so callers cannot mutate catalog state.
func clone(s model.Scenario) model.Scenario {
	out := s
	out.PsychologyInsights = append([]string(nil), s.PsychologyInsights...)
	out.Decisions = make([]model.Decision, len(s.Decisions))
	for i, d := range s.Decisions {
		out.Decisions[i] = model.Decision{
			Time:    d.Time,
			Options: append([]model.DecisionOption(nil), d.Options...),
		}
	}
	return out
}
