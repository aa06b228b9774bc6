package leadimport

import (
	"context"
	"math"
	"time"
)

// Field is a destination lead field that a source column can be mapped to.
type Field string

const (
	FieldNone                    Field = "none"
	FieldName                    Field = "name"
	FieldEmail                   Field = "email"
	FieldPhone                   Field = "phone"
	FieldTitle                   Field = "title"
	FieldCompany                 Field = "company"
	FieldLinkedInURL             Field = "linkedin_url"
	FieldTwitterURL              Field = "twitter_url"
	FieldNotes                   Field = "notes"
	FieldStatus                  Field = "status"
	FieldSource                  Field = "source"
	FieldScore                   Field = "score"
	FieldTags                    Field = "tags"
	FieldLastContactDate         Field = "last_contact_date"
	FieldCommunicationPreference Field = "communication_preference"
	FieldInterests               Field = "interests"
)

// Fields lists the destination vocabulary in display order.
var Fields = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldTitle,
	FieldCompany,
	FieldLinkedInURL,
	FieldTwitterURL,
	FieldNotes,
	FieldStatus,
	FieldSource,
	FieldScore,
	FieldTags,
	FieldLastContactDate,
	FieldCommunicationPreference,
	FieldInterests,
}

// Valid reports whether f belongs to the destination vocabulary.
// FieldNone is not a destination; it only unassigns a column.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Lead statuses understood by the CRM.
const (
	StatusNew         = "new"
	StatusContacted   = "contacted"
	StatusQualified   = "qualified"
	StatusProposal    = "proposal"
	StatusNegotiation = "negotiation"
	StatusWon         = "won"
	StatusLost        = "lost"
)

// Statuses is the closed status vocabulary of the lead store.
var Statuses = []string{
	StatusNew, StatusContacted, StatusQualified, StatusProposal,
	StatusNegotiation, StatusWon, StatusLost,
}

// Headers is the header row of an import file, in file order.
type Headers []string

// Index returns the position of the named column, or -1.
// Matching is exact; header names are the export's own identifiers.
func (h Headers) Index(name string) int {
	for i, col := range h {
		if col == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (h Headers) Has(name string) bool {
	return h.Index(name) >= 0
}

// Lead is a candidate lead record built from one import row.
// Empty strings, nil slices and nil pointers mean "not set".
type Lead struct {
	Name                    string   `json:"name,omitempty"`
	Email                   string   `json:"email,omitempty"`
	Phone                   string   `json:"phone,omitempty"`
	Title                   string   `json:"title,omitempty"`
	Company                 string   `json:"company,omitempty"`
	LinkedInURL             string   `json:"linkedin_url,omitempty"`
	TwitterURL              string   `json:"twitter_url,omitempty"`
	Notes                   string   `json:"notes,omitempty"`
	Status                  string   `json:"status,omitempty"`
	Source                  string   `json:"source,omitempty"`
	Score                   *int     `json:"score,omitempty"`
	Tags                    []string `json:"tags,omitempty"`
	LastContactDate         string   `json:"last_contact_date,omitempty"` // YYYY-MM-DD
	CommunicationPreference string   `json:"communication_preference,omitempty"`
	Interests               string   `json:"interests,omitempty"`
}

// Fields returns the populated fields of l in vocabulary order.
// Stores use it to write only what the import provided.
func (l Lead) Fields() []Field {
	var out []Field
	for _, f := range Fields {
		if l.has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (l Lead) has(f Field) bool {
	switch f {
	case FieldScore:
		return l.Score != nil
	case FieldTags:
		return l.Tags != nil
	default:
		return l.Text(f) != ""
	}
}

// Text returns the value of a string-typed field, or "" for other fields.
func (l Lead) Text(f Field) string {
	switch f {
	case FieldName:
		return l.Name
	case FieldEmail:
		return l.Email
	case FieldPhone:
		return l.Phone
	case FieldTitle:
		return l.Title
	case FieldCompany:
		return l.Company
	case FieldLinkedInURL:
		return l.LinkedInURL
	case FieldTwitterURL:
		return l.TwitterURL
	case FieldNotes:
		return l.Notes
	case FieldStatus:
		return l.Status
	case FieldSource:
		return l.Source
	case FieldLastContactDate:
		return l.LastContactDate
	case FieldCommunicationPreference:
		return l.CommunicationPreference
	case FieldInterests:
		return l.Interests
	}
	return ""
}

// SetText stores v into a string-typed field. Other fields are ignored.
func (l *Lead) SetText(f Field, v string) {
	switch f {
	case FieldName:
		l.Name = v
	case FieldEmail:
		l.Email = v
	case FieldPhone:
		l.Phone = v
	case FieldTitle:
		l.Title = v
	case FieldCompany:
		l.Company = v
	case FieldLinkedInURL:
		l.LinkedInURL = v
	case FieldTwitterURL:
		l.TwitterURL = v
	case FieldNotes:
		l.Notes = v
	case FieldStatus:
		l.Status = v
	case FieldSource:
		l.Source = v
	case FieldLastContactDate:
		l.LastContactDate = v
	case FieldCommunicationPreference:
		l.CommunicationPreference = v
	case FieldInterests:
		l.Interests = v
	}
}

// StoredLead is a lead as persisted by a LeadStore.
type StoredLead struct {
	ID        string
	Lead      Lead
	CreatedAt time.Time
}

// LeadStore is the persistence collaborator of an import run.
//
// FindByNotesContaining must return matches oldest first; the executor
// updates only the first one.
type LeadStore interface {
	FindByNotesContaining(ctx context.Context, substr string) ([]StoredLead, error)
	Insert(ctx context.Context, lead Lead) (string, error)
	Update(ctx context.Context, id string, lead Lead) error
}

// ResultStatus is the outcome of one imported row.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success" // inserted
	ResultWarning ResultStatus = "warning" // updated an existing lead
	ResultError   ResultStatus = "error"
)

// RowResult is the audit log entry for one non-blank data row.
type RowResult struct {
	Row         int          `json:"row"` // 1-based position among data rows
	DisplayName string       `json:"display_name"`
	Status      ResultStatus `json:"status"`
	Message     string       `json:"message"`
}

// Progress is the run's position in the file. Processed counts every data
// line, including blank and failed ones.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Percent returns round(Processed/Total*100), held at 99 until the last
// line is processed.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(p.Processed) / float64(p.Total) * 100))
	if pct >= 100 && !p.Done() {
		return 99
	}
	return pct
}

// Done reports whether every data line has been processed.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Processed >= p.Total
}

// Hooks receive incremental run output. Nil hooks are ignored.
type Hooks struct {
	OnProgress func(Progress)
	OnRow      func(RowResult)
}

// Report is the final outcome of an import run.
type Report struct {
	Results  []RowResult   `json:"results"`
	Total    int           `json:"total"`
	Success  int           `json:"success"`
	Warning  int           `json:"warning"`
	Error    int           `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (r *Report) add(res RowResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case ResultSuccess:
		r.Success++
	case ResultWarning:
		r.Warning++
	case ResultError:
		r.Error++
	}
}
