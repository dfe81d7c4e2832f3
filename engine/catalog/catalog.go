// Package catalog scopes the OEM parts catalog to a vehicle and derives
// which part categories have pricing coverage. A Source yields one read-only
// snapshot of the make's entries per request, so an estimate is never priced
// against a mid-refresh catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

// Source provides catalog entries for a make. Implementations must return a
// consistent snapshot per call.
type Source interface {
	EntriesByMake(ctx context.Context, mk string) ([]domain.CatalogEntry, error)
}

// Scope is the catalog view for one vehicle: the make's entries plus the set
// of part categories with at least one matching entry.
type Scope struct {
	Vehicle    domain.Vehicle
	ValidParts map[domain.PartCategory]bool
	Entries    []domain.CatalogEntry
}

// Empty reports whether the make has no pricing coverage at all. The
// assembler surfaces this as domain.ErrNoCatalogForMake.
func (s Scope) Empty() bool { return len(s.ValidParts) == 0 }

// Scoper derives per-vehicle catalog scopes from a Source.
type Scoper struct {
	src Source
}

// NewScoper creates a Scoper.
func NewScoper(src Source) *Scoper { return &Scoper{src: src} }

// Scope filters the catalog to the vehicle's make (case-insensitive) and
// marks each part category valid iff any entry description contains one of
// its search terms. An empty scope is not an error here; callers decide.
func (s *Scoper) Scope(ctx context.Context, vehicle domain.Vehicle) (Scope, error) {
	entries, err := s.src.EntriesByMake(ctx, vehicle.Make)
	if err != nil {
		return Scope{}, fmt.Errorf("catalog: entries for %s: %w", vehicle.Make, err)
	}

	valid := make(map[domain.PartCategory]bool)
	for part, terms := range domain.PartSearchTerms {
		for _, e := range entries {
			if descriptionMatches(e.Description, terms) {
				valid[part] = true
				break
			}
		}
	}

	return Scope{Vehicle: vehicle, ValidParts: valid, Entries: entries}, nil
}

// EntriesFor returns the scope entries whose descriptions match the part's
// search terms. The cost resolver averages their prices.
func (s Scope) EntriesFor(part domain.PartCategory) []domain.CatalogEntry {
	terms := domain.PartSearchTerms[part]
	if len(terms) == 0 {
		return nil
	}
	var out []domain.CatalogEntry
	for _, e := range s.Entries {
		if descriptionMatches(e.Description, terms) {
			out = append(out, e)
		}
	}
	return out
}

func descriptionMatches(description string, terms []string) bool {
	desc := strings.ToLower(description)
	for _, term := range terms {
		if strings.Contains(desc, term) {
			return true
		}
	}
	return false
}

// MemorySource is an immutable in-memory catalog snapshot indexed by make.
type MemorySource struct {
	byMake map[string][]domain.CatalogEntry
}

// NewMemorySource builds a MemorySource from catalog entries.
func NewMemorySource(entries []domain.CatalogEntry) *MemorySource {
	byMake := make(map[string][]domain.CatalogEntry)
	for _, e := range entries {
		key := strings.ToUpper(strings.TrimSpace(e.Make))
		byMake[key] = append(byMake[key], e)
	}
	return &MemorySource{byMake: byMake}
}

// EntriesByMake implements Source.
func (m *MemorySource) EntriesByMake(_ context.Context, mk string) ([]domain.CatalogEntry, error) {
	entries := m.byMake[strings.ToUpper(strings.TrimSpace(mk))]
	// Copy so callers can never mutate the snapshot.
	out := make([]domain.CatalogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Makes returns the distinct makes present in the snapshot.
func (m *MemorySource) Makes() []string {
	makes := make([]string, 0, len(m.byMake))
	for k := range m.byMake {
		makes = append(makes, k)
	}
	return makes
}
