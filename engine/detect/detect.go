// Package detect turns raw perception-model outputs for one image into
// normalized, catalog-scoped detections.
package detect

import (
	"context"
	"log/slog"
	"sort"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

// Predictor is the perception-model capability: one image in, a map of label
// to probability out. Any backend satisfying this contract is swappable; the
// engine never depends on a specific model runtime.
type Predictor interface {
	Predict(ctx context.Context, image []byte) (map[string]float64, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, image []byte) (map[string]float64, error)

// Predict implements Predictor.
func (f PredictorFunc) Predict(ctx context.Context, image []byte) (map[string]float64, error) {
	return f(ctx, image)
}

// Thresholds are the tunable confidence cut-offs. Both comparisons are
// strict: a probability exactly at the threshold is excluded.
type Thresholds struct {
	Part   float64
	Damage float64
}

// DefaultThresholds are the standard cut-offs.
var DefaultThresholds = Thresholds{Part: 0.70, Damage: 0.60}

// Normalizer filters and combines per-image model outputs into Detections.
type Normalizer struct {
	thresholds Thresholds
	log        *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(thresholds Thresholds, log *slog.Logger) *Normalizer {
	if thresholds.Part <= 0 {
		thresholds.Part = DefaultThresholds.Part
	}
	if thresholds.Damage <= 0 {
		thresholds.Damage = DefaultThresholds.Damage
	}
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{thresholds: thresholds, log: log}
}

// Normalize applies the part threshold against the catalog-scoped valid part
// set, then the damage threshold, and derives the repair/replace action. If
// no part qualifies it returns nil without assessing damage: a damage finding
// is meaningless without a confirmed part. Each surviving part carries the
// image's full damage map; damages are not associated to a specific part
// within an image.
func (n *Normalizer) Normalize(partProbs, damageProbs map[string]float64, validParts map[domain.PartCategory]bool, imageIndex int) []domain.Detection {
	var parts []domain.Detection
	for label, prob := range partProbs {
		part := domain.PartCategory(label)
		if !domain.ValidPartCategories[part] {
			n.log.Debug("detect: dropping unknown part label", "label", label, "image", imageIndex)
			continue
		}
		if !validParts[part] || prob <= n.thresholds.Part {
			continue
		}
		parts = append(parts, domain.Detection{Part: part, PartConfidence: prob, ImageIndex: imageIndex})
	}
	if len(parts) == 0 {
		return nil
	}

	damages := make(map[domain.DamageType]float64)
	for label, prob := range damageProbs {
		d := domain.DamageType(label)
		if !domain.ValidDamageTypes[d] {
			n.log.Debug("detect: dropping unknown damage label", "label", label, "image", imageIndex)
			continue
		}
		if prob > n.thresholds.Damage {
			damages[d] = prob
		}
	}

	action := n.determineAction(damages, imageIndex)
	for i := range parts {
		parts[i].Damages = cloneDamages(damages)
		parts[i].Action = action
	}

	// Map iteration order is random; sort for deterministic output.
	sort.Slice(parts, func(i, j int) bool { return parts[i].Part < parts[j].Part })
	return parts
}

// determineAction is replace-dominant: one replace-class damage makes the
// whole detection a replacement. With no mapped damage at all the action
// defaults to repair, which is recorded as an unclear assessment rather than
// silently treated as cost-free.
func (n *Normalizer) determineAction(damages map[domain.DamageType]float64, imageIndex int) domain.Action {
	mapped := false
	for d := range damages {
		a, ok := domain.ActionForDamage(d)
		if !ok {
			continue
		}
		mapped = true
		if a == domain.ActionReplace {
			return domain.ActionReplace
		}
	}
	if !mapped {
		n.log.Info("detect: no mapped damage, defaulting to repair", "image", imageIndex)
	}
	return domain.ActionRepair
}

func cloneDamages(m map[domain.DamageType]float64) map[domain.DamageType]float64 {
	out := make(map[domain.DamageType]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
