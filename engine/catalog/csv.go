package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

// LoadCSV reads catalog entries from CSV data with a header containing
// Make, Part Description, and Price columns.
func LoadCSV(r io.Reader) ([]domain.CatalogEntry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	makeCol, ok1 := col["make"]
	descCol, ok2 := col["part description"]
	if !ok2 {
		descCol, ok2 = col["description"]
	}
	priceCol, ok3 := col["price"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("catalog: header must contain make, part description, price")
	}

	var entries []domain.CatalogEntry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: price: %w", line, err)
		}
		entries = append(entries, domain.CatalogEntry{
			Make:        strings.TrimSpace(rec[makeCol]),
			Description: strings.TrimSpace(rec[descCol]),
			Price:       price,
		})
	}
	return entries, nil
}

// LoadCSVFile loads catalog entries from a file path.
func LoadCSVFile(path string) ([]domain.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}
