package leadimport

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

var sampleHeaders = Headers{
	"uniqueLeadId", "firstName", "lastName", "occupation", "companyName",
	"profileUrl", "campaignName", "connectionAccepted", "tags", "lastInteractionDate",
}

func TestTransformRow_Happy(t *testing.T) {
	row := TokenizeRow(`abc123,Mario,Rossi,CTO,Acme,https://linkedin.com/in/mario,Q3 Outreach,true,"ai, saas ,",2024-03-05`)
	mapping := DefaultMappingFor(sampleHeaders)

	lead, err := NewTransformer().TransformRow(row, sampleHeaders, mapping, 1)
	if err != nil {
		t.Fatalf("TransformRow: %v", err)
	}

	if lead.Name != "Mario Rossi" {
		t.Errorf("Name = %q, want %q", lead.Name, "Mario Rossi")
	}
	if lead.Title != "CTO" {
		t.Errorf("Title = %q, want CTO", lead.Title)
	}
	if lead.Company != "Acme" {
		t.Errorf("Company = %q, want Acme", lead.Company)
	}
	if lead.LinkedInURL != "https://linkedin.com/in/mario" {
		t.Errorf("LinkedInURL = %q", lead.LinkedInURL)
	}
	if want := "LinkedIn ID: abc123\n\nCampaign: Q3 Outreach"; lead.Notes != want {
		t.Errorf("Notes = %q, want %q", lead.Notes, want)
	}
	if lead.Score == nil || *lead.Score != AcceptedScore {
		t.Errorf("Score = %v, want %d", lead.Score, AcceptedScore)
	}
	if !reflect.DeepEqual(lead.Tags, []string{"ai", "saas"}) {
		t.Errorf("Tags = %q, want [ai saas]", lead.Tags)
	}
	if lead.LastContactDate != "2024-03-05" {
		t.Errorf("LastContactDate = %q, want 2024-03-05", lead.LastContactDate)
	}
	if lead.Source != DefaultSource {
		t.Errorf("Source = %q, want %q", lead.Source, DefaultSource)
	}
	if lead.CommunicationPreference != DefaultPreference {
		t.Errorf("CommunicationPreference = %q, want %q", lead.CommunicationPreference, DefaultPreference)
	}
}

func TestTransformRow_Score(t *testing.T) {
	headers := Headers{"uniqueLeadId", "connectionAccepted"}
	mapping, _ := Mapping{}.Assign("uniqueLeadId", FieldNotes)

	tests := []struct {
		cell string
		want *int
	}{
		{"true", intPtr(AcceptedScore)},
		{"Yes", intPtr(AcceptedScore)},
		{"1", intPtr(AcceptedScore)},
		{"false", intPtr(PendingScore)},
		{"pending", intPtr(PendingScore)},
		{"", nil},
		{"nan", nil},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			lead, err := NewTransformer().TransformRow([]string{"id1", tt.cell}, headers, mapping, 1)
			if err != nil {
				t.Fatalf("TransformRow: %v", err)
			}
			if !reflect.DeepEqual(lead.Score, tt.want) {
				t.Errorf("Score = %v, want %v", deref(lead.Score), deref(tt.want))
			}
		})
	}
}

func TestTransformRow_MappedScoreColumn(t *testing.T) {
	headers := Headers{"uniqueLeadId", "rating"}
	mapping, _ := Mapping{}.Assign("rating", FieldScore)

	tests := []struct {
		cell string
		want *int
	}{
		{"42", intPtr(42)},
		{" -7 ", intPtr(-7)},
		{"2147483647", intPtr(2147483647)},
		{"2147483648", nil},
		{"4294967376", nil},
		{"-2147483649", nil},
		{"4.5", nil},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			lead, err := NewTransformer().TransformRow([]string{"id1", tt.cell}, headers, mapping, 1)
			if err != nil {
				t.Fatalf("TransformRow: %v", err)
			}
			if !reflect.DeepEqual(lead.Score, tt.want) {
				t.Errorf("Score = %v, want %v", deref(lead.Score), deref(tt.want))
			}
		})
	}
}

func TestTransformRow_MalformedDateLeftUnset(t *testing.T) {
	headers := Headers{"uniqueLeadId", "lastInteractionDate"}
	mapping := DefaultMappingFor(headers)

	lead, err := NewTransformer().TransformRow([]string{"x1", "not a date"}, headers, mapping, 3)
	if err != nil {
		t.Fatalf("TransformRow: %v", err)
	}
	if lead.LastContactDate != "" {
		t.Errorf("LastContactDate = %q, want unset", lead.LastContactDate)
	}
}

func TestTransformRow_MissingMappedColumn(t *testing.T) {
	headers := Headers{"uniqueLeadId"}
	mapping, _ := Mapping{}.Assign("jobTitle", FieldTitle)

	_, err := NewTransformer().TransformRow([]string{"x1"}, headers, mapping, 7)

	var rowErr *RowTransformError
	if !errors.As(err, &rowErr) {
		t.Fatalf("error = %v, want *RowTransformError", err)
	}
	if rowErr.Row != 7 {
		t.Errorf("Row = %d, want 7", rowErr.Row)
	}
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("error = %v, want ErrColumnNotFound", err)
	}
}

func TestTransformRow_ShortRowTotal(t *testing.T) {
	mapping := DefaultMappingFor(sampleHeaders)

	rows := []string{
		"",
		"only-id",
		"id,,,,,,,,,",
		"nan,nan,nan,nan,nan,nan,nan,nan,nan,nan",
		`"unterminated,quote`,
		"a,b,c,d,e,f,g,h,i,j,k,l,m",
	}
	for i, line := range rows {
		if _, err := NewTransformer().TransformRow(TokenizeRow(line), sampleHeaders, mapping, i+1); err != nil {
			t.Errorf("TransformRow(%q) error = %v, want nil", line, err)
		}
	}
}

func TestTransformRow_NotesKeepMappedValue(t *testing.T) {
	headers := Headers{"uniqueLeadId", "notes", "campaignName"}
	mapping := DefaultMappingFor(headers)

	lead, err := NewTransformer().TransformRow([]string{"id9", "met at expo", ""}, headers, mapping, 1)
	if err != nil {
		t.Fatalf("TransformRow: %v", err)
	}
	if want := "met at expo\n\nLinkedIn ID: id9"; lead.Notes != want {
		t.Errorf("Notes = %q, want %q", lead.Notes, want)
	}
}

func TestTransformRow_MappedNameWins(t *testing.T) {
	headers := Headers{"uniqueLeadId", "fullName", "firstName", "lastName"}
	mapping := DefaultMappingFor(headers)

	lead, err := NewTransformer().TransformRow([]string{"id", "Dr. M. Rossi", "Mario", "Rossi"}, headers, mapping, 1)
	if err != nil {
		t.Fatalf("TransformRow: %v", err)
	}
	if lead.Name != "Dr. M. Rossi" {
		t.Errorf("Name = %q, want mapped fullName", lead.Name)
	}
}

func TestIdentityValue(t *testing.T) {
	tests := []struct {
		name    string
		headers Headers
		row     []string
		want    string
	}{
		{"unique id", Headers{"uniqueLeadId", "profileUrl"}, []string{"u1", "p1"}, "u1"},
		{"profile fallback", Headers{"uniqueLeadId", "profileUrl"}, []string{"", "p1"}, "p1"},
		{"nan falls back", Headers{"uniqueLeadId", "profileUrl"}, []string{"nan", "p1"}, "p1"},
		{"profile only", Headers{"profileUrl"}, []string{"p1"}, "p1"},
		{"none", Headers{"uniqueLeadId"}, []string{""}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IdentityValue(tt.row, tt.headers); got != tt.want {
				t.Errorf("IdentityValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	headers := Headers{"firstName", "lastName"}
	tests := []struct {
		row  []string
		want string
	}{
		{[]string{"Mario", "Rossi"}, "Mario Rossi"},
		{[]string{"Mario", ""}, "Mario"},
		{[]string{"", "Rossi"}, "Rossi"},
		{[]string{"", ""}, "Unknown"},
		{[]string{}, "Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.row, headers); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.row, got, tt.want)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"won", StatusWon, true},
		{" Qualified ", StatusQualified, true},
		{"Accepted", StatusContacted, true},
		{"CONNECTED", StatusContacted, true},
		{"pending", StatusNew, true},
		{"Invitation sent", StatusNew, true},
		{"prequalified lead", StatusQualified, true},
		{"withdrawn", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeStatus(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("normalizeStatus(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" a, b ,,c ")
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("splitTags = %q, want %q", got, want)
	}
	if got := splitTags(" , "); len(got) != 0 || got == nil {
		t.Errorf("splitTags(blank) = %#v, want empty non-nil", got)
	}
}

func TestMarkers(t *testing.T) {
	if got := IdentityMarker("abc"); !strings.HasPrefix(got, "LinkedIn ID: ") || !strings.HasSuffix(got, "abc") {
		t.Errorf("IdentityMarker = %q", got)
	}
	if got := CampaignMarker("Q3"); got != "Campaign: Q3" {
		t.Errorf("CampaignMarker = %q", got)
	}
}

func intPtr(n int) *int { return &n }

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
