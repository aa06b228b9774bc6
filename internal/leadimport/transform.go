package leadimport

import (
	"fmt"
	"strconv"
	"strings"
)

// Columns the transformer reads directly, whether or not they are mapped.
const (
	ColumnUniqueLeadID       = "uniqueLeadId"
	ColumnProfileURL         = "profileUrl"
	ColumnCampaignName       = "campaignName"
	ColumnConnectionAccepted = "connectionAccepted"
	ColumnFirstName          = "firstName"
	ColumnLastName           = "lastName"
)

// IdentityColumns are the columns that can identify a lead, in priority order.
var IdentityColumns = []string{ColumnUniqueLeadID, ColumnProfileURL}

// Defaults applied to every imported lead.
const (
	DefaultSource     = "linkedin"
	DefaultPreference = "email"
	AcceptedScore     = 80
	PendingScore      = 30
)

// IdentityMarker is the notes line that ties a stored lead to its export row.
func IdentityMarker(id string) string {
	return "LinkedIn ID: " + id
}

// CampaignMarker is the notes line recording the originating campaign.
func CampaignMarker(name string) string {
	return "Campaign: " + name
}

var (
	acceptedTokens = []string{"accepted", "connected"}
	pendingTokens  = []string{"pending", "invited", "sent"}
	truthyTokens   = map[string]bool{"true": true, "yes": true, "y": true, "1": true, "accepted": true}
)

// Transformer turns tokenized rows into candidate leads.
type Transformer struct {
	Source        string
	Preference    string
	AcceptedScore int
	PendingScore  int
}

// NewTransformer returns a transformer with the standard import defaults.
func NewTransformer() *Transformer {
	return &Transformer{
		Source:        DefaultSource,
		Preference:    DefaultPreference,
		AcceptedScore: AcceptedScore,
		PendingScore:  PendingScore,
	}
}

// TransformRow builds a lead from one data row. rowIndex is the 1-based data
// row used in errors. Failures are returned as *RowTransformError; a failed
// row yields no lead at all.
func (t *Transformer) TransformRow(row []string, headers Headers, mapping Mapping, rowIndex int) (Lead, error) {
	var lead Lead

	for _, pair := range mapping.Pairs() {
		pos := headers.Index(pair.Source)
		if pos < 0 {
			return Lead{}, &RowTransformError{
				Row: rowIndex,
				Err: fmt.Errorf("%w: %q", ErrColumnNotFound, pair.Source),
			}
		}

		raw := cell(row, pos)
		if isAbsent(raw) {
			continue
		}

		switch pair.Field {
		case FieldTags:
			if tags := splitTags(raw); len(tags) > 0 {
				lead.Tags = tags
			}
		case FieldStatus:
			if status, ok := normalizeStatus(raw); ok {
				lead.Status = status
			}
		case FieldLastContactDate:
			if date, ok := ParseContactDate(raw); ok {
				lead.LastContactDate = date
			}
		case FieldScore:
			// out-of-range scores are left unset like any unparsable cell
			if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32); err == nil {
				n := int(v)
				lead.Score = &n
			}
		default:
			lead.SetText(pair.Field, raw)
		}
	}

	t.applyDerived(&lead, row, headers)
	return lead, nil
}

func (t *Transformer) applyDerived(lead *Lead, row []string, headers Headers) {
	if id := IdentityValue(row, headers); id != "" {
		lead.Notes = appendNote(lead.Notes, IdentityMarker(id))
	}

	if campaign := columnValue(row, headers, ColumnCampaignName); campaign != "" {
		lead.Notes = appendNote(lead.Notes, CampaignMarker(campaign))
	}

	// an empty acceptance cell counts as an absent column
	if accepted := columnValue(row, headers, ColumnConnectionAccepted); accepted != "" {
		score := t.PendingScore
		if truthyTokens[strings.ToLower(strings.TrimSpace(accepted))] {
			score = t.AcceptedScore
		}
		lead.Score = &score
	}

	if lead.Name == "" {
		lead.Name = fullName(row, headers)
	}

	if lead.CommunicationPreference == "" {
		lead.CommunicationPreference = t.Preference
	}

	lead.Source = t.Source
}

// IdentityValue returns the row's lead identifier: uniqueLeadId, falling back
// to profileUrl. Empty when neither is populated.
func IdentityValue(row []string, headers Headers) string {
	for _, col := range IdentityColumns {
		if v := columnValue(row, headers, col); v != "" {
			return v
		}
	}
	return ""
}

// HasIdentityColumn reports whether headers carry any identity column.
func HasIdentityColumn(headers Headers) bool {
	for _, col := range IdentityColumns {
		if headers.Has(col) {
			return true
		}
	}
	return false
}

// DisplayName returns "First Last" for the row, or "Unknown".
func DisplayName(row []string, headers Headers) string {
	if name := fullName(row, headers); name != "" {
		return name
	}
	return "Unknown"
}

func fullName(row []string, headers Headers) string {
	first := columnValue(row, headers, ColumnFirstName)
	last := columnValue(row, headers, ColumnLastName)
	return strings.TrimSpace(first + " " + last)
}

// columnValue returns the named column's value, or "" when the column is
// missing or the value is absent.
func columnValue(row []string, headers Headers, name string) string {
	v := cell(row, headers.Index(name))
	if isAbsent(v) {
		return ""
	}
	return v
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// isAbsent treats empty values and spreadsheet "nan" exports as missing.
func isAbsent(v string) bool {
	return v == "" || strings.EqualFold(strings.TrimSpace(v), "nan")
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n\n" + line
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// normalizeStatus maps export vocabulary onto the lead status vocabulary.
func normalizeStatus(raw string) (string, bool) {
	token := strings.ToLower(strings.TrimSpace(raw))

	for _, s := range Statuses {
		if token == s {
			return s, true
		}
	}

	if strings.Contains(token, StatusQualified) {
		return StatusQualified, true
	}
	for _, a := range acceptedTokens {
		if strings.Contains(token, a) {
			return StatusContacted, true
		}
	}
	for _, p := range pendingTokens {
		if strings.Contains(token, p) {
			return StatusNew, true
		}
	}
	return "", false
}
