// Package schemafile loads named validation schemas from YAML.
//
// A schema file looks like:
//
//	schemas:
//	  signup:
//	    fields:
//	      email: required|email|unique:users,email
//	      items.*.price: [required, numeric, "min:0"]
//	    aliases:
//	      email: e-mail address
//	    options:
//	      nested: true
//
// Field rules are either a pipe-delimited string or a list of rule tokens.
// Each schema is compiled once against the engine's registry.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/solatis/checkpoint/internal/rules"
)

var (
	// ErrNoSchemas indicates a file that defines no schemas.
	ErrNoSchemas = errors.New("schema file defines no schemas")

	// ErrUnknownSchema indicates a lookup of a schema name not in the set.
	ErrUnknownSchema = errors.New("unknown schema")
)

type fileDoc struct {
	Schemas map[string]schemaDoc `yaml:"schemas"`
}

type schemaDoc struct {
	Fields  map[string]fieldSpec `yaml:"fields"`
	Aliases map[string]string    `yaml:"aliases"`
	Options optionsDoc           `yaml:"options"`
}

type optionsDoc struct {
	FailFast         *bool `yaml:"fail_fast"`
	StopOnFirstError *bool `yaml:"stop_on_first_error"`
	Nested           *bool `yaml:"nested"`
}

// fieldSpec accepts a pipe string or a sequence of rule tokens.
type fieldSpec struct {
	spec rules.Spec
}

func (f *fieldSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		f.spec = rules.Pipe(s)
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return fmt.Errorf("line %d: rule list must contain strings: %w", node.Line, err)
		}
		list := make([]any, len(items))
		for i, item := range items {
			list[i] = item
		}
		f.spec = rules.List(list...)
	default:
		return fmt.Errorf("line %d: rules must be a string or a list", node.Line)
	}
	return nil
}

// Entry is one compiled schema with its display names and validator.
type Entry struct {
	Name      string
	Schema    *rules.Schema
	Aliases   *rules.Aliases
	Validator *rules.Validator
}

// Set holds the compiled schemas of one file.
type Set struct {
	entries map[string]*Entry
	names   []string
}

// Load reads and compiles the schema file at path.
func Load(path string, engine *rules.Engine) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	set, err := Parse(data, engine)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse compiles schema definitions from YAML. Unknown keys are rejected.
func Parse(data []byte, engine *rules.Engine) (*Set, error) {
	if engine == nil {
		engine = rules.NewEngine(nil, nil, nil)
	}

	var doc fileDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSchemas
		}
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	if len(doc.Schemas) == 0 {
		return nil, ErrNoSchemas
	}

	set := &Set{entries: make(map[string]*Entry, len(doc.Schemas))}
	for name, sd := range doc.Schemas {
		entry, err := compileEntry(engine, name, sd)
		if err != nil {
			return nil, err
		}
		set.entries[name] = entry
		set.names = append(set.names, name)
	}
	sort.Strings(set.names)
	return set, nil
}

func compileEntry(engine *rules.Engine, name string, sd schemaDoc) (*Entry, error) {
	if name == "" {
		return nil, errors.New("schema name must not be empty")
	}
	if len(sd.Fields) == 0 {
		return nil, fmt.Errorf("schema %q: no fields", name)
	}

	specs := make(map[string]rules.Spec, len(sd.Fields))
	for field, fs := range sd.Fields {
		specs[field] = fs.spec
	}
	schema, err := engine.Compile(specs)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", name, err)
	}

	aliases := rules.NewAliases(sd.Aliases)
	opts := []rules.Option{rules.WithAliases(aliases)}
	if sd.Options.FailFast != nil {
		opts = append(opts, rules.WithFailFast(*sd.Options.FailFast))
	}
	if sd.Options.StopOnFirstError != nil {
		opts = append(opts, rules.WithStopOnFirstError(*sd.Options.StopOnFirstError))
	}
	if sd.Options.Nested != nil {
		opts = append(opts, rules.WithNested(*sd.Options.Nested))
	}

	return &Entry{
		Name:      name,
		Schema:    schema,
		Aliases:   aliases,
		Validator: engine.NewValidator(schema, opts...),
	}, nil
}

// Get returns the named schema.
func (s *Set) Get(name string) (*Entry, error) {
	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return entry, nil
}

// Names returns the schema names in sorted order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of schemas.
func (s *Set) Len() int { return len(s.names) }
