package detect

import (
	"testing"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

func allParts() map[domain.PartCategory]bool {
	valid := make(map[domain.PartCategory]bool, len(domain.ValidPartCategories))
	for p := range domain.ValidPartCategories {
		valid[p] = true
	}
	return valid
}

func TestNormalize_PartThresholdIsStrict(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	partProbs := map[string]float64{
		"Front-bumper": 0.70,      // exactly at threshold: excluded
		"Hood":         0.7000001, // just above: included
	}
	dets := n.Normalize(partProbs, map[string]float64{"Scratch": 0.8}, allParts(), 0)
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(dets))
	}
	if dets[0].Part != domain.PartHood {
		t.Errorf("got %q, want Hood", dets[0].Part)
	}
}

func TestNormalize_NoQualifyingPartSkipsDamage(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	dets := n.Normalize(
		map[string]float64{"Hood": 0.50},
		map[string]float64{"Crack": 0.99},
		allParts(), 0,
	)
	if dets != nil {
		t.Errorf("expected nil without a qualifying part, got %v", dets)
	}
}

func TestNormalize_PartOutsideValidSetExcluded(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	valid := map[domain.PartCategory]bool{domain.PartHood: true}
	dets := n.Normalize(
		map[string]float64{"Hood": 0.9, "Front-bumper": 0.95},
		map[string]float64{"Dent": 0.7},
		valid, 0,
	)
	if len(dets) != 1 || dets[0].Part != domain.PartHood {
		t.Errorf("only catalog-scoped parts should survive, got %v", dets)
	}
}

func TestNormalize_DamageThresholdIsStrict(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	dets := n.Normalize(
		map[string]float64{"Hood": 0.9},
		map[string]float64{"Scratch": 0.60, "Dent": 0.61},
		allParts(), 0,
	)
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(dets))
	}
	if _, ok := dets[0].Damages[domain.DamageScratch]; ok {
		t.Error("damage at exactly 0.60 must be excluded")
	}
	if _, ok := dets[0].Damages[domain.DamageDent]; !ok {
		t.Error("damage above 0.60 must be kept")
	}
}

func TestNormalize_ReplaceDominantAction(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	dets := n.Normalize(
		map[string]float64{"Hood": 0.9},
		map[string]float64{"Scratch": 0.8, "Crack": 0.65},
		allParts(), 0,
	)
	if dets[0].Action != domain.ActionReplace {
		t.Errorf("crack maps to replace, got %q", dets[0].Action)
	}
}

func TestNormalize_NoDamageDefaultsToRepair(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	dets := n.Normalize(
		map[string]float64{"Hood": 0.9},
		map[string]float64{"Scratch": 0.1},
		allParts(), 0,
	)
	if len(dets) != 1 || dets[0].Action != domain.ActionRepair {
		t.Errorf("unclear damage should default to repair, got %v", dets)
	}
	if len(dets[0].Damages) != 0 {
		t.Errorf("no damage should survive the threshold, got %v", dets[0].Damages)
	}
}

func TestNormalize_UnknownLabelsDropped(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	dets := n.Normalize(
		map[string]float64{"Hood": 0.9, "Flux-capacitor": 0.99},
		map[string]float64{"Scratch": 0.8, "Rust": 0.95},
		allParts(), 0,
	)
	if len(dets) != 1 {
		t.Fatalf("unknown part label must be dropped, got %d detections", len(dets))
	}
	if _, ok := dets[0].Damages["Rust"]; ok {
		t.Error("unknown damage label must be dropped")
	}
}

func TestNormalize_EachDetectionGetsOwnDamageMap(t *testing.T) {
	n := NewNormalizer(Thresholds{}, nil)
	dets := n.Normalize(
		map[string]float64{"Hood": 0.9, "Fender": 0.8},
		map[string]float64{"Dent": 0.7},
		allParts(), 0,
	)
	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(dets))
	}
	dets[0].Damages[domain.DamageDent] = 0.99
	if dets[1].Damages[domain.DamageDent] == 0.99 {
		t.Error("detections must not share a damage map")
	}
}

func TestNormalize_CustomThresholds(t *testing.T) {
	n := NewNormalizer(Thresholds{Part: 0.5, Damage: 0.4}, nil)
	dets := n.Normalize(
		map[string]float64{"Hood": 0.55},
		map[string]float64{"Dent": 0.45},
		allParts(), 3,
	)
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection with lowered thresholds, got %d", len(dets))
	}
	if dets[0].ImageIndex != 3 {
		t.Errorf("image index must be tagged, got %d", dets[0].ImageIndex)
	}
	if _, ok := dets[0].Damages[domain.DamageDent]; !ok {
		t.Error("damage above lowered threshold must be kept")
	}
}
