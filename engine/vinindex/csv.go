package vinindex

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads VIN reference rows from CSV data with a header line
// containing VIN, Make, Model, and Year columns in any order.
func LoadCSV(r io.Reader, opts ...Option) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("vinindex: read header: %w", err)
	}
	col := columnIndex(header)
	for _, name := range []string{"vin", "make", "model", "year"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("vinindex: missing column %q", name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("vinindex: line %d: %w", line, err)
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[col["year"]]))
		if err != nil {
			return nil, fmt.Errorf("vinindex: line %d: year: %w", line, err)
		}
		rows = append(rows, Row{
			VIN:   rec[col["vin"]],
			Make:  strings.TrimSpace(rec[col["make"]]),
			Model: strings.TrimSpace(rec[col["model"]]),
			Year:  year,
		})
	}
	return New(rows, opts...), nil
}

// LoadCSVFile loads a VIN reference table from a file path.
func LoadCSVFile(path string, opts ...Option) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vinindex: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, opts...)
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return col
}
