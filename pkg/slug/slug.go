package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate turns a display name into a URL-friendly identifier.
//
//	"Strength"         → "strength"
//	"Recovery & Care"  → "recovery-care"
//	"  Weight Plates " → "weight-plates"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
