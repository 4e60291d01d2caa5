package domain

import "strings"

// Mod acronyms with special meaning for scoring.
const (
	// ModNoFail prevents failing; plays using it are excluded from every
	// ranking-relevant aggregate as a fairness rule.
	ModNoFail = "NF"

	// ModClassic is attached by the v2 API to effectively every stable score.
	// It only changes score behavior and never shifts star rating, so it is
	// not worth an attributes round-trip on its own.
	ModClassic = "CL"
)

// HasNoFail reports whether the no-fail mod is present in the acronym set,
// regardless of what else is enabled alongside it. Matching is
// case-insensitive.
func HasNoFail(mods []string) bool {
	for _, m := range mods {
		if strings.EqualFold(m, ModNoFail) {
			return true
		}
	}
	return false
}

// AltersDifficulty reports whether the mod set could change a beatmap's star
// rating. Only the empty set and the lone Classic mod are known to leave it
// untouched; anything else must be recalculated against the attributes
// endpoint.
func AltersDifficulty(mods []string) bool {
	switch len(mods) {
	case 0:
		return false
	case 1:
		return !strings.EqualFold(mods[0], ModClassic)
	default:
		return true
	}
}
