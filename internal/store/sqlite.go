package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/LeadImport/internal/leadimport"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	name TEXT,
	email TEXT,
	phone TEXT,
	title TEXT,
	company TEXT,
	linkedin_url TEXT,
	twitter_url TEXT,
	notes TEXT,
	status TEXT,
	source TEXT,
	score INTEGER,
	tags TEXT,
	last_contact_date TEXT,
	communication_preference TEXT,
	interests TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_created_at_idx ON leads (created_at);
`

// SQLite stores leads in a single-file SQLite database.
// Tags are stored as a JSON array.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between concurrent runs
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Ping checks the database handle.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// FindByNotesContaining returns leads whose notes contain substr, oldest first.
func (s *SQLite) FindByNotesContaining(ctx context.Context, substr string) ([]leadimport.StoredLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		WHERE instr(notes, ?) > 0
		ORDER BY created_at, rowid`, substr)
	if err != nil {
		return nil, fmt.Errorf("find leads by notes: %w", err)
	}
	defer rows.Close()

	var out []leadimport.StoredLead
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find leads by notes: %w", err)
	}
	return out, nil
}

// Insert writes the populated fields of lead as a new row.
func (s *SQLite) Insert(ctx context.Context, lead leadimport.Lead) (string, error) {
	id := uuid.NewString()
	now := s.now().UTC()

	cols := []string{"id", "created_at", "updated_at"}
	args := []any{id, now, now}
	for _, f := range lead.Fields() {
		v, err := sqliteValue(lead, f)
		if err != nil {
			return "", fmt.Errorf("insert lead: %w", err)
		}
		cols = append(cols, string(f))
		args = append(args, v)
	}

	query := fmt.Sprintf("INSERT INTO leads (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert lead: %w", err)
	}
	return id, nil
}

// Update overwrites the populated fields of lead on the row with id.
func (s *SQLite) Update(ctx context.Context, id string, lead leadimport.Lead) error {
	fields := lead.Fields()
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		v, err := sqliteValue(lead, f)
		if err != nil {
			return fmt.Errorf("update lead: %w", err)
		}
		sets = append(sets, string(f)+" = ?")
		args = append(args, v)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UTC(), id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE leads SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrLeadNotFound, id)
	}
	return nil
}

func sqliteValue(lead leadimport.Lead, f leadimport.Field) (any, error) {
	switch f {
	case leadimport.FieldScore:
		return *lead.Score, nil
	case leadimport.FieldTags:
		b, err := json.Marshal(lead.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		return string(b), nil
	default:
		return lead.Text(f), nil
	}
}

func scanSQLiteLead(rows *sql.Rows) (leadimport.StoredLead, error) {
	var id string
	var name, email, phone, title, company sql.NullString
	var linkedin, twitter, notes, status, source sql.NullString
	var tags, lastContact, preference, interests sql.NullString
	var score sql.NullInt64
	var createdAt time.Time

	err := rows.Scan(&id, &name, &email, &phone, &title, &company, &linkedin, &twitter,
		&notes, &status, &source, &score, &tags, &lastContact,
		&preference, &interests, &createdAt)
	if err != nil {
		return leadimport.StoredLead{}, err
	}

	lead := leadimport.Lead{
		Name:                    name.String,
		Email:                   email.String,
		Phone:                   phone.String,
		Title:                   title.String,
		Company:                 company.String,
		LinkedInURL:             linkedin.String,
		TwitterURL:              twitter.String,
		Notes:                   notes.String,
		Status:                  status.String,
		Source:                  source.String,
		LastContactDate:         lastContact.String,
		CommunicationPreference: preference.String,
		Interests:               interests.String,
	}
	if score.Valid {
		n := int(score.Int64)
		lead.Score = &n
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &lead.Tags); err != nil {
			return leadimport.StoredLead{}, fmt.Errorf("decode tags: %w", err)
		}
	}

	return leadimport.StoredLead{ID: id, Lead: lead, CreatedAt: createdAt}, nil
}
