// Package store provides the lead stores an import run writes to.
//
// All stores implement leadimport.LeadStore: a notes substring search that
// returns matches oldest first, an insert that returns the new lead's ID, and
// an update that writes only the fields the candidate lead populates.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/LeadImport/internal/leadimport"
	"github.com/google/uuid"
)

// ErrLeadNotFound is returned by Update for an unknown lead ID.
var ErrLeadNotFound = errors.New("lead not found")

// Memory is an in-process lead store. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	leads []leadimport.StoredLead
	now   func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// FindByNotesContaining returns leads whose notes contain substr, oldest first.
func (m *Memory) FindByNotesContaining(_ context.Context, substr string) ([]leadimport.StoredLead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leadimport.StoredLead
	for _, l := range m.leads {
		if strings.Contains(l.Lead.Notes, substr) {
			out = append(out, clone(l))
		}
	}
	return out, nil
}

// Insert stores lead under a new UUID.
func (m *Memory) Insert(_ context.Context, lead leadimport.Lead) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.leads = append(m.leads, clone(leadimport.StoredLead{
		ID:        id,
		Lead:      lead,
		CreatedAt: m.now(),
	}))
	return id, nil
}

// Update overwrites the populated fields of lead onto the stored lead.
func (m *Memory) Update(_ context.Context, id string, lead leadimport.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.leads {
		if m.leads[i].ID == id {
			m.leads[i].Lead = Merge(m.leads[i].Lead, lead)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrLeadNotFound, id)
}

// All returns a copy of every stored lead in insertion order.
func (m *Memory) All() []leadimport.StoredLead {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]leadimport.StoredLead, len(m.leads))
	for i, l := range m.leads {
		out[i] = clone(l)
	}
	return out
}

// Merge applies the populated fields of patch on top of base.
func Merge(base, patch leadimport.Lead) leadimport.Lead {
	for _, f := range patch.Fields() {
		switch f {
		case leadimport.FieldScore:
			score := *patch.Score
			base.Score = &score
		case leadimport.FieldTags:
			base.Tags = slices.Clone(patch.Tags)
		default:
			base.SetText(f, patch.Text(f))
		}
	}
	return base
}

func clone(l leadimport.StoredLead) leadimport.StoredLead {
	l.Lead.Tags = slices.Clone(l.Lead.Tags)
	if l.Lead.Score != nil {
		score := *l.Lead.Score
		l.Lead.Score = &score
	}
	return l
}
