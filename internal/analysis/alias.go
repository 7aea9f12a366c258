package analysis

import "strings"

// AliasRule canonicalizes building-name variants: any building containing
// Match (case-insensitive) is rewritten to Canonical.
type AliasRule struct {
	Match     string
	Canonical string
}

// DefaultAliases covers the Salcedo Village buildings whose names come back
// from normalization in several variants.
func DefaultAliases() []AliasRule {
	return []AliasRule{
		{Match: "Ellis", Canonical: "Ellis"},
		{Match: "Rise", Canonical: "The Rise"},
		{Match: "Triomphe", Canonical: "Le Triomphe"},
		{Match: "Shang Salcedo", Canonical: "Shang Salcedo Place"},
		{Match: "Two Roxas", Canonical: "Two Roxas"},
	}
}

// Canonicalize applies rules in order, each against the current value, so a
// later rule sees earlier rewrites.
func Canonicalize(building string, rules []AliasRule) string {
	for _, r := range rules {
		if strings.Contains(strings.ToLower(building), strings.ToLower(r.Match)) {
			building = r.Canonical
		}
	}
	return building
}
