package steps

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dshills/vaahai/internal/logging"
	"github.com/dshills/vaahai/internal/review"
)

// ErrUnknownStep is returned when resolving an id that was never registered.
var ErrUnknownStep = errors.New("unknown step")

// Definition is a registered step type.
type Definition struct {
	Info Info
	// Schema is an optional JSON Schema document that Config must satisfy.
	Schema string
	New    Factory
}

// Criteria selects definitions in Filter. Zero fields match everything.
type Criteria struct {
	Category review.Category
	Severity review.Severity
	// Tags matches steps carrying any of the listed tags.
	Tags []string
	// IncludeDisabled also returns steps whose Info.Enabled is false.
	IncludeDisabled bool
}

// Registry maintains known step definitions. Build it once at startup and
// treat it as read-only afterwards.
type Registry struct {
	defs   map[string]Definition
	logger *log.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{defs: map[string]Definition{}, logger: logger}
}

// Register installs a step definition under id. Reusing an id replaces the
// previous definition and logs a warning.
func (r *Registry) Register(id string, def Definition) {
	if def.Info.ID == "" {
		def.Info.ID = id
	}
	if _, exists := r.defs[id]; exists {
		r.logger.Warn("step already registered, overwriting", "id", id)
	}
	r.defs[id] = def
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// IDs returns a sorted list of registered step identifiers.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Definitions returns every definition sorted by id.
func (r *Registry) Definitions() []Definition {
	return r.Filter(Criteria{IncludeDisabled: true})
}

// Filter returns the definitions matching c, sorted by id.
func (r *Registry) Filter(c Criteria) []Definition {
	var out []Definition
	for _, id := range r.IDs() {
		def := r.defs[id]
		if !c.IncludeDisabled && !def.Info.Enabled {
			continue
		}
		if c.Category != "" && def.Info.Category != c.Category {
			continue
		}
		if c.Severity != "" && def.Info.Severity != c.Severity {
			continue
		}
		if len(c.Tags) > 0 && !hasAnyTag(def.Info, c.Tags) {
			continue
		}
		out = append(out, def)
	}
	return out
}

func hasAnyTag(info Info, tags []string) bool {
	for _, t := range tags {
		if info.HasTag(strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

// Resolve constructs a step by id after validating cfg against the step's
// schema.
func (r *Registry) Resolve(id string, cfg Config) (Step, error) {
	def, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	if def.New == nil {
		return nil, fmt.Errorf("step %s: no factory", id)
	}
	if err := validateConfig(def.Schema, cfg); err != nil {
		return nil, fmt.Errorf("step %s: invalid config: %w", id, err)
	}
	if cfg == nil {
		cfg = Config{}
	}
	step, err := def.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", id, err)
	}
	return step, nil
}

// CreateInstance is Resolve that logs failures and returns nil instead of
// an error.
func (r *Registry) CreateInstance(id string, cfg Config) Step {
	step, err := r.Resolve(id, cfg)
	if err != nil {
		r.logger.Error("cannot create step", "id", id, "err", err)
		return nil
	}
	return step
}

func validateConfig(schemaDoc string, cfg Config) error {
	if strings.TrimSpace(schemaDoc) == "" {
		return nil
	}
	schema, err := jsonschema.CompileString("step-config.json", schemaDoc)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if cfg == nil {
		cfg = Config{}
	}
	// Round-trip through JSON so YAML-decoded ints validate as numbers.
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return schema.Validate(v)
}
