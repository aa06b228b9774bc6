package leadimport

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultMappingFor(t *testing.T) {
	headers := Headers{"uniqueLeadId", "firstName", "lastName", "occupation", "companyName", "profileUrl", "campaignName"}

	m := DefaultMappingFor(headers)

	want := []MappingPair{
		{"occupation", FieldTitle},
		{"companyName", FieldCompany},
		{"profileUrl", FieldLinkedInURL},
	}
	if got := m.Pairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}

	// identity and derived columns stay unmapped
	for _, col := range []string{"uniqueLeadId", "firstName", "lastName", "campaignName"} {
		if f, ok := m.Lookup(col); ok {
			t.Errorf("Lookup(%q) = %q, want unmapped", col, f)
		}
	}
}

func TestDefaultMappingFor_Deterministic(t *testing.T) {
	headers := Headers{"headline", "occupation", "email", "emailAddress", "tags"}

	first := DefaultMappingFor(headers)
	for i := 0; i < 20; i++ {
		if got := DefaultMappingFor(headers); !reflect.DeepEqual(got.Pairs(), first.Pairs()) {
			t.Fatalf("run %d: Pairs() = %v, want %v", i, got.Pairs(), first.Pairs())
		}
	}
}

func TestDefaultMappingFor_LaterHeaderWinsField(t *testing.T) {
	m := DefaultMappingFor(Headers{"headline", "occupation"})

	if _, ok := m.Lookup("headline"); ok {
		t.Error("headline should lose title to the later occupation column")
	}
	if f, _ := m.Lookup("occupation"); f != FieldTitle {
		t.Errorf("Lookup(occupation) = %q, want %q", f, FieldTitle)
	}
}

func TestDefaultMappingFor_NoKnownHeaders(t *testing.T) {
	m := DefaultMappingFor(Headers{"uniqueLeadId", "foo"})
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if err := m.Validate(); !errors.Is(err, ErrEmptyMapping) {
		t.Errorf("Validate() = %v, want ErrEmptyMapping", err)
	}
}

func TestMapping_Assign(t *testing.T) {
	base := DefaultMappingFor(Headers{"occupation", "companyName"})

	t.Run("new column", func(t *testing.T) {
		m, err := base.Assign("summary", FieldNotes)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if f, _ := m.Lookup("summary"); f != FieldNotes {
			t.Errorf("Lookup(summary) = %q, want notes", f)
		}
		if base.Len() != 2 {
			t.Errorf("base was modified: Len() = %d, want 2", base.Len())
		}
	})

	t.Run("steals field from other column", func(t *testing.T) {
		m, err := base.Assign("jobTitle", FieldTitle)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if _, ok := m.Lookup("occupation"); ok {
			t.Error("occupation still mapped after title was reassigned")
		}
		if f, _ := m.Lookup("jobTitle"); f != FieldTitle {
			t.Errorf("Lookup(jobTitle) = %q, want title", f)
		}
	})

	t.Run("replaces prior assignment of column", func(t *testing.T) {
		m, err := base.Assign("occupation", FieldNotes)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if f, _ := m.Lookup("occupation"); f != FieldNotes {
			t.Errorf("Lookup(occupation) = %q, want notes", f)
		}
		if m.Len() != 2 {
			t.Errorf("Len() = %d, want 2", m.Len())
		}
	})

	t.Run("none unassigns", func(t *testing.T) {
		m, err := base.Assign("occupation", FieldNone)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if _, ok := m.Lookup("occupation"); ok {
			t.Error("occupation still mapped after none")
		}
		if m.Len() != 1 {
			t.Errorf("Len() = %d, want 1", m.Len())
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := base.Assign("occupation", Field("salary"))
		if !errors.Is(err, ErrUnknownField) {
			t.Errorf("Assign() error = %v, want ErrUnknownField", err)
		}
	})
}

func TestMapping_Injective(t *testing.T) {
	m := Mapping{}
	steps := []MappingPair{
		{"a", FieldName}, {"b", FieldName}, {"c", FieldEmail},
		{"a", FieldEmail}, {"b", FieldNone}, {"d", FieldName},
	}
	for _, s := range steps {
		var err error
		if m, err = m.Assign(s.Source, s.Field); err != nil {
			t.Fatalf("Assign(%q, %q): %v", s.Source, s.Field, err)
		}

		seen := map[Field]string{}
		for _, p := range m.Pairs() {
			if prev, dup := seen[p.Field]; dup {
				t.Fatalf("after Assign(%q, %q): field %q fed by %q and %q", s.Source, s.Field, p.Field, prev, p.Source)
			}
			seen[p.Field] = p.Source
		}
	}

	want := map[string]Field{"a": FieldEmail, "d": FieldName}
	got := map[string]Field{}
	for _, p := range m.Pairs() {
		got[p.Source] = p.Field
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mapping = %v, want %v", got, want)
	}
}

func TestApplyOverrides(t *testing.T) {
	base := DefaultMappingFor(Headers{"occupation", "companyName", "summary"})

	m, err := ApplyOverrides(base, map[string]string{
		"summary":     "notes",
		"companyName": "none",
	})
	if err != nil {
		t.Fatalf("ApplyOverrides: %v", err)
	}

	want := []MappingPair{{"occupation", FieldTitle}, {"summary", FieldNotes}}
	if got := m.Pairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}

	if _, err := ApplyOverrides(base, map[string]string{"summary": "bogus"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("ApplyOverrides(bogus) error = %v, want ErrUnknownField", err)
	}
}

func TestParseMappingTable(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		want    MappingTable
	}{
		{
			name: "valid",
			doc:  "columns:\n  jobTitle: title\n  mail: email\n",
			want: MappingTable{"jobTitle": FieldTitle, "mail": FieldEmail},
		},
		{name: "unknown field", doc: "columns:\n  jobTitle: salary\n", wantErr: true},
		{name: "no columns", doc: "other: 1\n", wantErr: true},
		{name: "bad yaml", doc: "columns: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMappingTable([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMappingTable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMappingTable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadMappingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	if err := os.WriteFile(path, []byte("columns:\n  role: title\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadMappingTable(path)
	if err != nil {
		t.Fatalf("LoadMappingTable: %v", err)
	}
	if f, _ := table.MappingFor(Headers{"role"}).Lookup("role"); f != FieldTitle {
		t.Errorf("role mapped to %q, want title", f)
	}

	if _, err := LoadMappingTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadMappingTable(missing) returned nil error")
	}
}

func TestDefaultTable_AllFieldsValid(t *testing.T) {
	for col, f := range DefaultTable {
		if !f.Valid() {
			t.Errorf("default column %q maps to invalid field %q", col, f)
		}
	}
}
