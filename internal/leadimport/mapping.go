package leadimport

// mapping.go maps source file columns to destination lead fields.
//
// The default table is an embedded YAML document keyed by the export's
// conventional header names. A deployment can swap it for its own file with
// LoadMappingTable. Operator overrides are applied with Mapping.Assign, which
// keeps both sides of the mapping unique: a column feeds at most one field and
// a field is fed by at most one column.

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default_mapping.yaml
var defaultMappingYAML []byte

// MappingTable is a static source-column -> field table.
type MappingTable map[string]Field

// DefaultTable is the built-in table parsed from default_mapping.yaml.
var DefaultTable = mustParseTable(defaultMappingYAML)

type mappingDocument struct {
	Columns map[string]string `yaml:"columns"`
}

// ParseMappingTable parses a YAML mapping document.
// Every destination must belong to the field vocabulary.
func ParseMappingTable(data []byte) (MappingTable, error) {
	var doc mappingDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mapping table: %w", err)
	}
	if len(doc.Columns) == 0 {
		return nil, fmt.Errorf("parse mapping table: no columns defined")
	}

	table := make(MappingTable, len(doc.Columns))
	for source, dest := range doc.Columns {
		field := Field(dest)
		if !field.Valid() {
			return nil, fmt.Errorf("parse mapping table: column %q: %w: %q", source, ErrUnknownField, dest)
		}
		table[source] = field
	}
	return table, nil
}

// LoadMappingTable reads a YAML mapping document from disk.
func LoadMappingTable(path string) (MappingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping table: %w", err)
	}
	return ParseMappingTable(data)
}

func mustParseTable(data []byte) MappingTable {
	table, err := ParseMappingTable(data)
	if err != nil {
		panic(err)
	}
	return table
}

// MappingFor builds the initial mapping for a header row: every header found
// in the table is assigned, in header order, so later headers win a
// contested destination.
func (t MappingTable) MappingFor(headers Headers) Mapping {
	m := Mapping{}
	for _, h := range headers {
		if field, ok := t[h]; ok {
			m = m.assign(h, field)
		}
	}
	return m
}

// DefaultMappingFor builds the initial mapping from the built-in table.
// It is a pure function of headers.
func DefaultMappingFor(headers Headers) Mapping {
	return DefaultTable.MappingFor(headers)
}

// Mapping is an immutable source-column -> field assignment.
// The zero value is an empty mapping.
type Mapping struct {
	order  []string
	fields map[string]Field
}

// MappingPair is one assignment, used for display and JSON.
type MappingPair struct {
	Source string `json:"source"`
	Field  Field  `json:"field"`
}

// Assign returns a copy of m with source mapped to field.
//
// Any prior assignment for source is replaced and any other column already
// feeding field loses it. FieldNone unassigns source.
func (m Mapping) Assign(source string, field Field) (Mapping, error) {
	if field != FieldNone && !field.Valid() {
		return m, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return m.assign(source, field), nil
}

func (m Mapping) assign(source string, field Field) Mapping {
	out := Mapping{fields: make(map[string]Field, len(m.fields)+1)}
	for _, src := range m.order {
		if src == source {
			continue
		}
		if f := m.fields[src]; f != field {
			out.order = append(out.order, src)
			out.fields[src] = f
		}
	}
	if field != FieldNone {
		out.order = append(out.order, source)
		out.fields[source] = field
	}
	return out
}

// Lookup returns the field assigned to source.
func (m Mapping) Lookup(source string) (Field, bool) {
	f, ok := m.fields[source]
	return f, ok
}

// Len returns the number of mapped columns.
func (m Mapping) Len() int {
	return len(m.order)
}

// Validate fails with ErrEmptyMapping when no column is mapped.
func (m Mapping) Validate() error {
	if m.Len() == 0 {
		return ErrEmptyMapping
	}
	return nil
}

// Pairs lists the assignments in assignment order.
func (m Mapping) Pairs() []MappingPair {
	pairs := make([]MappingPair, 0, len(m.order))
	for _, src := range m.order {
		pairs = append(pairs, MappingPair{Source: src, Field: m.fields[src]})
	}
	return pairs
}

// ApplyOverrides assigns each operator override on top of base. Keys are
// applied in sorted order so the result does not depend on map iteration.
func ApplyOverrides(base Mapping, overrides map[string]string) (Mapping, error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := base
	for _, source := range keys {
		var err error
		m, err = m.Assign(source, Field(overrides[source]))
		if err != nil {
			return Mapping{}, fmt.Errorf("column %q: %w", source, err)
		}
	}
	return m, nil
}
