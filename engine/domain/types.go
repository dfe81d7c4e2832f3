// Package domain defines core domain types, enumerations, and validation for
// the estimation engine. It acts as the validation gate at pipeline entry
// points and carries the reference tables shared with the perception models
// and the catalog-term mapping.
package domain

// Vehicle is the identity resolved from a VIN.
type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	VIN   string `json:"vin,omitempty"`
}

// PartCategory is a canonical damage-relevant body part label. The values are
// the exact output vocabulary of the part identification model and the key
// vocabulary of the catalog search-term table; the three are versioned
// together.
type PartCategory string

const (
	PartFrontBumper     PartCategory = "Front-bumper"
	PartBackBumper      PartCategory = "Back-bumper"
	PartHood            PartCategory = "Hood"
	PartFrontDoor       PartCategory = "Front-door"
	PartBackDoor        PartCategory = "Back-door"
	PartTrunk           PartCategory = "Trunk"
	PartFender          PartCategory = "Fender"
	PartQuarterPanel    PartCategory = "Quarter-panel"
	PartRockerPanel     PartCategory = "Rocker-panel"
	PartRunningBoard    PartCategory = "Running-board"
	PartHeadlamp        PartCategory = "Headlamp"
	PartTailLamp        PartCategory = "Tail-lamp"
	PartFrontWindshield PartCategory = "Front-windshield"
	PartBackWindshield  PartCategory = "Back-windshield"
	PartSideMirror      PartCategory = "Front-sideview-mirror"
	PartWheel           PartCategory = "Wheel"
	PartRoof            PartCategory = "Roof"
	PartGrille          PartCategory = "Grille"
	PartDoorHandle      PartCategory = "Door-handle"
	PartFogLamp         PartCategory = "Fog-lamp"
	PartLicensePlate    PartCategory = "License-plate"
)

// ValidPartCategories is the closed set of recognised part labels.
var ValidPartCategories = map[PartCategory]bool{
	PartFrontBumper: true, PartBackBumper: true, PartHood: true,
	PartFrontDoor: true, PartBackDoor: true, PartTrunk: true,
	PartFender: true, PartQuarterPanel: true, PartRockerPanel: true,
	PartRunningBoard: true, PartHeadlamp: true, PartTailLamp: true,
	PartFrontWindshield: true, PartBackWindshield: true, PartSideMirror: true,
	PartWheel: true, PartRoof: true, PartGrille: true,
	PartDoorHandle: true, PartFogLamp: true, PartLicensePlate: true,
}

// DamageType classifies a detected damage. Values match the damage
// classification model vocabulary.
type DamageType string

const (
	DamageScratch      DamageType = "Scratch"
	DamageDent         DamageType = "Dent"
	DamageCrack        DamageType = "Crack"
	DamageGlassShatter DamageType = "Glass shatter"
	DamageLampBroken   DamageType = "Lamp broken"
	DamageTear         DamageType = "Tear"
	DamageBroken       DamageType = "Broken"
	DamageMissing      DamageType = "Missing"
)

// ValidDamageTypes is the closed set of recognised damage labels.
var ValidDamageTypes = map[DamageType]bool{
	DamageScratch: true, DamageDent: true, DamageCrack: true,
	DamageGlassShatter: true, DamageLampBroken: true, DamageTear: true,
	DamageBroken: true, DamageMissing: true,
}

// Action is the repair-vs-replace decision for a part.
type Action string

const (
	ActionRepair  Action = "repair"
	ActionReplace Action = "replace"
)

// damageActions maps every damage type to its action. The map is total over
// ValidDamageTypes; tests verify the invariant.
var damageActions = map[DamageType]Action{
	DamageScratch:      ActionRepair,
	DamageDent:         ActionRepair,
	DamageCrack:        ActionReplace,
	DamageGlassShatter: ActionReplace,
	DamageLampBroken:   ActionReplace,
	DamageTear:         ActionReplace,
	DamageBroken:       ActionReplace,
	DamageMissing:      ActionReplace,
}

// ActionForDamage returns the action mapped to a damage type. The second
// return is false for labels outside the enumeration; callers must record
// such damages as unclear rather than defaulting silently.
func ActionForDamage(d DamageType) (Action, bool) {
	a, ok := damageActions[d]
	return a, ok
}

// Detection is one part observed in one image, with that image's full damage
// assessment attached.
type Detection struct {
	Part           PartCategory           `json:"part"`
	PartConfidence float64                `json:"part_confidence"`
	Damages        map[DamageType]float64 `json:"damages"`
	Action         Action                 `json:"action"`
	ImageIndex     int                    `json:"image_index"`
}

// ConsolidatedPart is the single authoritative record for a part across all
// images of one request. PartConfidence and per-damage confidences are the
// maxima over contributing detections; Action is replace if any contributing
// detection required replacement.
type ConsolidatedPart struct {
	Part           PartCategory           `json:"part"`
	PartConfidence float64                `json:"part_confidence"`
	Damages        map[DamageType]float64 `json:"damages"`
	Action         Action                 `json:"action"`
}

// CatalogEntry is one priced OEM part row.
type CatalogEntry struct {
	Make        string  `json:"make"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// LaborEntry is one labor-hour reference row, keyed by labor part name.
type LaborEntry struct {
	Part         string  `json:"part"`
	RepairHours  float64 `json:"repair_hours"`
	ReplaceHours float64 `json:"replace_hours"`
}
