package estimate

import (
	"log/slog"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
	"github.com/AutoEstimateAI/autoestimate-mvp/engine/labor"
)

// NoteLaborOnly flags a replacement line item priced without catalog data.
const NoteLaborOnly = "OEM price not available - labor only estimate"

// Config holds the pricing parameters. TaxRate is a fraction (0.06 = 6%).
type Config struct {
	LaborRate float64
	TaxRate   float64
}

// DefaultConfig matches the standard shop parameters.
var DefaultConfig = Config{LaborRate: 55.0, TaxRate: 0.06}

// Pricer turns consolidated parts into cost line items.
type Pricer struct {
	cfg   Config
	labor *labor.Table
	log   *slog.Logger
}

// NewPricer creates a Pricer. A zero-valued Config takes DefaultConfig; an
// unset or negative labor rate and a negative tax rate take their defaults
// individually, so TaxRate 0 with a labor rate set means tax-free. A nil
// logger falls back to slog.Default.
func NewPricer(cfg Config, laborTable *labor.Table, log *slog.Logger) *Pricer {
	if cfg == (Config{}) {
		cfg = DefaultConfig
	}
	if cfg.LaborRate <= 0 {
		cfg.LaborRate = DefaultConfig.LaborRate
	}
	if cfg.TaxRate < 0 {
		cfg.TaxRate = DefaultConfig.TaxRate
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pricer{cfg: cfg, labor: laborTable, log: log}
}

// Price resolves one consolidated part into a line item. entries is the
// catalog subset already matched to the part's search terms. For replacements
// the part price is the mean of matching rows; with no rows the item degrades
// to a flagged labor-only estimate instead of failing. All amounts stay
// unrounded; rounding is a presentation concern.
func (p *Pricer) Price(part domain.ConsolidatedPart, entries []domain.CatalogEntry) CostLineItem {
	hours := p.labor.HoursFor(part.Part)
	if hours.Defaulted {
		p.log.Warn("estimate: no labor row, using default hours",
			"part", part.Part, "action", part.Action)
	}

	item := CostLineItem{
		Part:             part.Part,
		Action:           part.Action,
		Damages:          sortedDamages(part.Damages),
		Confidence:       Percent(part.PartConfidence),
		UsedDefaultHours: hours.Defaulted,
	}

	if part.Action == domain.ActionReplace {
		item.LaborHours = hours.Replace
		item.LaborCost = Money(p.cfg.LaborRate * hours.Replace)
		if len(entries) > 0 {
			price := Money(meanPrice(entries))
			item.PartPrice = &price
			item.HasCatalogPrice = true
			item.Subtotal = price + item.LaborCost
		} else {
			p.log.Warn("estimate: no catalog match for replacement", "part", part.Part)
			item.HasCatalogPrice = false
			item.Subtotal = item.LaborCost
			item.Note = NoteLaborOnly
		}
	} else {
		item.LaborHours = hours.Repair
		item.LaborCost = Money(p.cfg.LaborRate * hours.Repair)
		item.Subtotal = item.LaborCost
		// Repairs need no part price; the catalog flag is not meaningful
		// for them and stays true so the item is never rendered as degraded.
		item.HasCatalogPrice = true
	}

	item.TotalWithTax = item.Subtotal * Money(1+p.cfg.TaxRate)
	return item
}

func meanPrice(entries []domain.CatalogEntry) float64 {
	sum := 0.0
	for _, e := range entries {
		sum += e.Price
	}
	return sum / float64(len(entries))
}
