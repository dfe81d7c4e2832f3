package domain

// PartSearchTerms maps each part category to the free-text terms used to
// match OEM catalog descriptions (case-insensitive substring match). This
// table is versioned reference data shared with the catalog pipeline.
var PartSearchTerms = map[PartCategory][]string{
	PartFrontBumper:     {"bumper", "front bumper", "bumper cover front"},
	PartBackBumper:      {"rear bumper", "back bumper", "bumper cover rear"},
	PartHood:            {"hood", "hood panel"},
	PartFrontDoor:       {"front door", "door front", "door shell front"},
	PartBackDoor:        {"rear door", "back door", "door shell rear"},
	PartTrunk:           {"trunk", "deck lid", "trunk lid"},
	PartFender:          {"fender", "front fender"},
	PartQuarterPanel:    {"quarter panel", "quarter", "rear quarter"},
	PartRockerPanel:     {"rocker panel", "rocker"},
	PartRunningBoard:    {"running board", "step", "side step"},
	PartHeadlamp:        {"headlight", "headlamp", "head lamp"},
	PartTailLamp:        {"tail light", "tail lamp", "rear lamp"},
	PartFrontWindshield: {"windshield", "front windshield"},
	PartBackWindshield:  {"rear windshield", "back windshield", "rear window"},
	PartSideMirror:      {"mirror", "side mirror", "door mirror"},
	PartWheel:           {"wheel", "rim"},
	PartRoof:            {"roof", "roof panel"},
	PartGrille:          {"grille", "grill", "front grille"},
	PartDoorHandle:      {"door handle", "handle"},
	PartFogLamp:         {"fog light", "fog lamp"},
	PartLicensePlate:    {"license plate", "plate bracket"},
}

// LaborPartFor maps part categories to labor-table row names. Labor rows do
// not align 1:1 with part categories: several categories share a row that is
// the closest labor proxy.
var LaborPartFor = map[PartCategory]string{
	PartFrontBumper:     "Front-bumper",
	PartBackBumper:      "Back-bumper",
	PartHood:            "Hood",
	PartFrontDoor:       "Front-door",
	PartBackDoor:        "Back-door",
	PartTrunk:           "Trunk",
	PartFender:          "Fender",
	PartQuarterPanel:    "Quarter-panel",
	PartRockerPanel:     "Rocker-panel",
	PartRunningBoard:    "Rocker-panel", // rocker panel hours
	PartHeadlamp:        "Headlight",
	PartTailLamp:        "Tail-light",
	PartFrontWindshield: "Windshield",
	PartBackWindshield:  "Back-windshield",
	PartSideMirror:      "Mirror",
	PartWheel:           "Front-wheel",
	PartRoof:            "Roof",
	PartGrille:          "Grille",
	PartDoorHandle:      "Front-door", // door hours as proxy
	PartFogLamp:         "Headlight",  // headlight hours as proxy
	PartLicensePlate:    "License-plate",
}
