package estimate

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

// Money is a monetary amount in the configured currency. Values stay
// unrounded through every calculation; rounding to 2 decimal places happens
// only when marshaling for presentation.
type Money float64

// MarshalJSON rounds to 2 decimal places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(round(float64(m), 2), 'f', 2, 64)), nil
}

// Percent is a confidence expressed as a fraction in (0,1], rendered as a
// percentage with 1 decimal place.
type Percent float64

// MarshalJSON renders the fraction as a 1-decimal percentage.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", fmt.Sprintf("%.1f%%", float64(p)*100))), nil
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// Request is one estimate request: a VIN plus the damage photos.
type Request struct {
	VIN    string   `json:"vin"`
	Images [][]byte `json:"-"`
}

// CostLineItem is one priced consolidated part. PartPrice is nil when no
// catalog row matched; that is never the same thing as a zero price, and
// HasCatalogPrice plus Note make the difference visible in output.
type CostLineItem struct {
	Part             domain.PartCategory `json:"part"`
	Action           domain.Action       `json:"action"`
	Damages          []domain.DamageType `json:"damages"`
	Confidence       Percent             `json:"confidence"`
	LaborHours       float64             `json:"labor_hours"`
	LaborCost        Money               `json:"labor_cost"`
	PartPrice        *Money              `json:"part_price,omitempty"`
	Subtotal         Money               `json:"subtotal"`
	TotalWithTax     Money               `json:"total_with_tax"`
	HasCatalogPrice  bool                `json:"has_catalog_price"`
	UsedDefaultHours bool                `json:"used_default_hours,omitempty"`
	Note             string              `json:"note,omitempty"`
}

// Summary aggregates the line items. TotalEstimate is the sum of the
// already-computed per-item totals, so it always reconciles with the
// displayed breakdown.
type Summary struct {
	TotalParts     int   `json:"total_parts"`
	PartsToReplace int   `json:"parts_to_replace"`
	PartsToRepair  int   `json:"parts_to_repair"`
	TotalEstimate  Money `json:"total_estimate"`
}

// Estimate is the final structured result. A request with a valid vehicle
// and catalog but no qualifying detection yields an Estimate with no line
// items and a Message; that is a success, not a failure.
type Estimate struct {
	ID        string         `json:"id"`
	Vehicle   domain.Vehicle `json:"vehicle"`
	LineItems []CostLineItem `json:"repair_items,omitempty"`
	Summary   Summary        `json:"summary"`
	Notes     []string       `json:"notes,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// NoDamage reports whether the estimate is the no-damage success variant.
func (e Estimate) NoDamage() bool { return len(e.LineItems) == 0 && e.Message != "" }

// NoCatalogError is returned when the vehicle resolved but its make has no
// catalog coverage. The vehicle identity is still valid and is carried so
// responses can include it.
type NoCatalogError struct {
	Vehicle domain.Vehicle
}

func (e *NoCatalogError) Error() string {
	return fmt.Sprintf("no catalog data for make %s", e.Vehicle.Make)
}

func (e *NoCatalogError) Unwrap() error { return domain.ErrNoCatalogForMake }

func sortedDamages(m map[domain.DamageType]float64) []domain.DamageType {
	out := make([]domain.DamageType, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
