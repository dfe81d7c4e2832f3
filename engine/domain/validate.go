package domain

import (
	"regexp"
	"strings"
)

// VIN format: 17 alphanumeric characters, excluding I, O, Q.
var vinRegex = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// VINPrefixLen is the WMI+VDS segment length used for prefix fallback
// matching. The remaining characters are the serial suffix and carry no
// make/model information.
const VINPrefixLen = 11

// ValidateVIN checks that a VIN is a well-formed 17-character identifier.
func ValidateVIN(vin string) error {
	if !vinRegex.MatchString(strings.ToUpper(strings.TrimSpace(vin))) {
		return NewValidationError("vin", vin, ErrInvalidVIN)
	}
	return nil
}

// NormalizeVIN trims and uppercases a VIN for lookup.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}
