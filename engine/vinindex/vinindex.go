// Package vinindex resolves VINs to vehicle identities against a read-only
// reference table. The table is loaded once into an immutable snapshot;
// lookups perform no I/O.
package vinindex

import (
	"strings"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

// Row is one VIN reference table entry.
type Row struct {
	VIN   string
	Make  string
	Model string
	Year  int
}

// Option configures a Registry.
type Option func(*Registry)

// WithPrefixFallback toggles the 11-character prefix fallback. It is on by
// default; turning it off trades coverage for exact model-year accuracy.
func WithPrefixFallback(enabled bool) Option {
	return func(r *Registry) { r.prefixFallback = enabled }
}

// Registry is an immutable VIN lookup snapshot.
type Registry struct {
	rows           []Row
	exact          map[string]int
	prefixFallback bool
}

// New builds a Registry from reference rows. The rows are copied, so the
// caller's slice is untouched. Row order is preserved: the prefix fallback
// returns the first matching row, as the reference data is ordered.
func New(rows []Row, opts ...Option) *Registry {
	r := &Registry{
		rows:           make([]Row, len(rows)),
		exact:          make(map[string]int, len(rows)),
		prefixFallback: true,
	}
	for i, row := range rows {
		row.VIN = domain.NormalizeVIN(row.VIN)
		r.rows[i] = row
		if _, dup := r.exact[row.VIN]; !dup {
			r.exact[row.VIN] = i
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len reports the number of reference rows.
func (r *Registry) Len() int { return len(r.rows) }

// Resolve returns the vehicle identity for a VIN. It tries an exact match
// first, then falls back to matching the first 11 characters (WMI+VDS) and
// takes the first matching row. The fallback may resolve to a neighbouring
// model year of the same vehicle line. Returns domain.ErrVINNotFound when
// neither strategy matches, or when the VIN is too short for the fallback.
func (r *Registry) Resolve(vin string) (domain.Vehicle, error) {
	vin = domain.NormalizeVIN(vin)

	if i, ok := r.exact[vin]; ok {
		return r.vehicleAt(i, vin), nil
	}

	if r.prefixFallback && len(vin) >= domain.VINPrefixLen {
		prefix := vin[:domain.VINPrefixLen]
		for i, row := range r.rows {
			if strings.HasPrefix(row.VIN, prefix) {
				return r.vehicleAt(i, vin), nil
			}
		}
	}

	return domain.Vehicle{}, domain.ErrVINNotFound
}

func (r *Registry) vehicleAt(i int, requestedVIN string) domain.Vehicle {
	row := r.rows[i]
	return domain.Vehicle{
		Make:  row.Make,
		Model: row.Model,
		Year:  row.Year,
		VIN:   requestedVIN,
	}
}
