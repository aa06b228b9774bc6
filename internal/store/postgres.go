package store

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JonMunkholm/LeadImport/internal/leadimport"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed schema_postgres.sql
var postgresSchema string

// DBTX is the subset of pgx used by the store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Postgres stores leads in a PostgreSQL "leads" table.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps a pool or transaction.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the leads table and its indexes if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// leadColumns lists the selected columns in scan order.
const leadColumns = `id, name, email, phone, title, company, linkedin_url, twitter_url,
	notes, status, source, score, tags, last_contact_date,
	communication_preference, interests, created_at`

// FindByNotesContaining returns leads whose notes contain substr, oldest first.
// strpos keeps LIKE wildcards in substr literal.
func (p *Postgres) FindByNotesContaining(ctx context.Context, substr string) ([]leadimport.StoredLead, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		WHERE strpos(notes, $1) > 0
		ORDER BY created_at, id`, substr)
	if err != nil {
		return nil, fmt.Errorf("find leads by notes: %w", err)
	}
	defer rows.Close()

	var out []leadimport.StoredLead
	for rows.Next() {
		lead, err := scanPgLead(rows)
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
func (p *Postgres) Insert(ctx context.Context, lead leadimport.Lead) (string, error) {
	id := uuid.New()

	cols := []string{"id"}
	args := []any{id}
	for _, f := range lead.Fields() {
		v, err := pgValue(lead, f)
		if err != nil {
			return "", fmt.Errorf("insert lead: %w", err)
		}
		cols = append(cols, string(f))
		args = append(args, v)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO leads (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert lead: %w", err)
	}
	return id.String(), nil
}

// Update overwrites the populated fields of lead on the row with id.
func (p *Postgres) Update(ctx context.Context, id string, lead leadimport.Lead) error {
	leadID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("update lead: invalid id %q: %w", id, err)
	}

	fields := lead.Fields()
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		v, err := pgValue(lead, f)
		if err != nil {
			return fmt.Errorf("update lead: %w", err)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", f, len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, leadID)

	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrLeadNotFound, id)
	}
	return nil
}

// pgValue converts one populated lead field into a pgx argument.
func pgValue(lead leadimport.Lead, f leadimport.Field) (any, error) {
	switch f {
	case leadimport.FieldScore:
		if *lead.Score < math.MinInt32 || *lead.Score > math.MaxInt32 {
			return nil, fmt.Errorf("score %d out of range", *lead.Score)
		}
		return pgtype.Int4{Int32: int32(*lead.Score), Valid: true}, nil
	case leadimport.FieldTags:
		return lead.Tags, nil
	case leadimport.FieldLastContactDate:
		t, err := time.Parse("2006-01-02", lead.LastContactDate)
		if err != nil {
			return nil, fmt.Errorf("last_contact_date %q: %w", lead.LastContactDate, err)
		}
		return pgtype.Date{Time: t, Valid: true}, nil
	default:
		return lead.Text(f), nil
	}
}

func scanPgLead(rows pgx.Rows) (leadimport.StoredLead, error) {
	var id pgtype.UUID
	var name, email, phone, title, company pgtype.Text
	var linkedin, twitter, notes, status, source pgtype.Text
	var preference, interests pgtype.Text
	var score pgtype.Int4
	var tags []string
	var lastContact pgtype.Date
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
		Tags:                    tags,
		CommunicationPreference: preference.String,
		Interests:               interests.String,
	}
	if score.Valid {
		s := int(score.Int32)
		lead.Score = &s
	}
	if lastContact.Valid {
		lead.LastContactDate = lastContact.Time.Format("2006-01-02")
	}

	return leadimport.StoredLead{
		ID:        uuid.UUID(id.Bytes).String(),
		Lead:      lead,
		CreatedAt: createdAt,
	}, nil
}
