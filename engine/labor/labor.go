// Package labor provides the labor-hour reference table keyed by labor part
// name, with configurable default hours when a part has no row.
package labor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

// Hours is the repair/replace hour pair for a part. Defaulted reports
// whether the values came from the fallback rather than a table row.
type Hours struct {
	Repair    float64
	Replace   float64
	Defaulted bool
}

// Defaults are the fallback hours applied when a part has no labor row.
type Defaults struct {
	RepairHours  float64
	ReplaceHours float64
}

// DefaultHours are the standard fallback values.
var DefaultHours = Defaults{RepairHours: 2.0, ReplaceHours: 3.0}

// Table is an immutable labor-hour snapshot.
type Table struct {
	rows     map[string]domain.LaborEntry
	defaults Defaults
}

// New builds a Table from labor entries. Zero-valued defaults are replaced
// with DefaultHours.
func New(entries []domain.LaborEntry, defaults Defaults) *Table {
	if defaults.RepairHours <= 0 {
		defaults.RepairHours = DefaultHours.RepairHours
	}
	if defaults.ReplaceHours <= 0 {
		defaults.ReplaceHours = DefaultHours.ReplaceHours
	}
	rows := make(map[string]domain.LaborEntry, len(entries))
	for _, e := range entries {
		rows[strings.ToLower(strings.TrimSpace(e.Part))] = e
	}
	return &Table{rows: rows, defaults: defaults}
}

// Len reports the number of labor rows.
func (t *Table) Len() int { return len(t.rows) }

// HoursFor returns the hours for a part category, resolving it through the
// category→labor-part mapping. Missing mappings or rows fall back to the
// defaults with Defaulted set; callers log and flag these, never hide them.
func (t *Table) HoursFor(part domain.PartCategory) Hours {
	name, ok := domain.LaborPartFor[part]
	if !ok {
		return Hours{Repair: t.defaults.RepairHours, Replace: t.defaults.ReplaceHours, Defaulted: true}
	}
	row, ok := t.rows[strings.ToLower(name)]
	if !ok {
		return Hours{Repair: t.defaults.RepairHours, Replace: t.defaults.ReplaceHours, Defaulted: true}
	}
	return Hours{Repair: row.RepairHours, Replace: row.ReplaceHours}
}

// LoadCSV reads labor rows from CSV data with Part, Repair_Hours, and
// Replace_Hours columns.
func LoadCSV(r io.Reader, defaults Defaults) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("labor: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	partCol, ok1 := col["part"]
	repairCol, ok2 := col["repair_hours"]
	replaceCol, ok3 := col["replace_hours"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("labor: header must contain part, repair_hours, replace_hours")
	}

	var entries []domain.LaborEntry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("labor: line %d: %w", line, err)
		}
		repair, err := strconv.ParseFloat(strings.TrimSpace(rec[repairCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("labor: line %d: repair hours: %w", line, err)
		}
		replace, err := strconv.ParseFloat(strings.TrimSpace(rec[replaceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("labor: line %d: replace hours: %w", line, err)
		}
		entries = append(entries, domain.LaborEntry{
			Part:         strings.TrimSpace(rec[partCol]),
			RepairHours:  repair,
			ReplaceHours: replace,
		})
	}
	return New(entries, defaults), nil
}

// LoadCSVFile loads a labor table from a file path.
func LoadCSVFile(path string, defaults Defaults) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("labor: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, defaults)
}
