package estimate

import (
	"sort"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/fn"
)

// Consolidate merges per-image detections into one record per distinct part.
// The merge is worst-case-wins: part confidence is the max over detections,
// the action is replace if any detection requires replacement, and each
// damage type keeps its max observed confidence. The merge is commutative
// and idempotent, so image order never changes the result. Output is sorted
// by part for deterministic presentation.
func Consolidate(detections []domain.Detection) []domain.ConsolidatedPart {
	groups := fn.GroupBy(detections, func(d domain.Detection) domain.PartCategory { return d.Part })

	out := make([]domain.ConsolidatedPart, 0, len(groups))
	for part, group := range groups {
		out = append(out, mergeGroup(part, group))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Part < out[j].Part })
	return out
}

func mergeGroup(part domain.PartCategory, group []domain.Detection) domain.ConsolidatedPart {
	merged := domain.ConsolidatedPart{
		Part:    part,
		Action:  domain.ActionRepair,
		Damages: make(map[domain.DamageType]float64),
	}
	for _, d := range group {
		if d.PartConfidence > merged.PartConfidence {
			merged.PartConfidence = d.PartConfidence
		}
		if d.Action == domain.ActionReplace {
			merged.Action = domain.ActionReplace
		}
		for damage, conf := range d.Damages {
			if conf > merged.Damages[damage] {
				merged.Damages[damage] = conf
			}
		}
	}
	return merged
}
