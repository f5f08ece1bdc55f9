package synthesis

import "strings"

// Validation verdicts are returned as (ok, reason) pairs rather than errors:
// an invalid artifact is an expected generation outcome that fails the
// persona, not a fault in the pipeline.

const noRelatedFactor = "N/A"

// norm loosens string comparison between generated artifacts: models
// occasionally add a trailing period or stray whitespace when repeating a
// factor or preference verbatim.
func norm(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
}

func containsNorm(haystack []string, needle string) bool {
	n := norm(needle)
	for _, h := range haystack {
		if norm(h) == n {
			return true
		}
	}
	return false
}

// ValidateContextFactors checks that the factor set contains exactly one
// contrastive pair: two factors whose related_factor fields mutually
// reference each other.
func ValidateContextFactors(factors []ContextFactor) (bool, string) {
	pairs := 0
	for i, factor := range factors {
		if factor.RelatedFactor == noRelatedFactor {
			continue
		}
		for _, other := range factors[i+1:] {
			if factor.RelatedFactor == other.Factor && factor.Factor == other.RelatedFactor {
				pairs++
			}
		}
	}
	if pairs == 1 {
		return true, "Valid context factors"
	}
	return false, "Invalid number of contrastive pairs found in context factors"
}

// ValidateSessions checks the generated session series against the factor
// set: the final session's factor must appear exactly four times before the
// final session with preferences following the pattern A, A, A', A' where A'
// matches the final preference, and its contrastive factor must appear once
// or twice with its own preference.
func ValidateSessions(sessions []Session, factors []ContextFactor, nSessions int) (bool, string) {
	if len(sessions) != nSessions {
		return false, "Invalid number of sessions"
	}

	finalFactor := sessions[len(sessions)-1].ContextFactor
	finalPreference := sessions[len(sessions)-1].Preference

	for _, session := range sessions {
		if session.RequestWithFactor == "" {
			return false, "Missing 'request_with_factor' field"
		}
	}

	var allFactors, allPreferences []string
	for _, factor := range factors {
		allFactors = append(allFactors, factor.Factor)
		allPreferences = append(allPreferences, factor.Preference)
	}

	var contrastiveFactor string
	for _, factor := range factors {
		if factor.RelatedFactor == noRelatedFactor {
			continue
		}
		if factor.Factor == finalFactor {
			contrastiveFactor = factor.RelatedFactor
		} else if factor.RelatedFactor == finalFactor {
			contrastiveFactor = factor.Factor
		}
	}
	var contrastivePreference string
	for _, factor := range factors {
		if factor.Factor == contrastiveFactor {
			contrastivePreference = factor.Preference
		}
	}

	var preferenceHistory []string
	contrastiveCount := 0
	for _, session := range sessions[:len(sessions)-1] {
		if !containsNorm(allFactors, session.ContextFactor) {
			return false, "Session's factor not found in list of context factors"
		}

		if session.ContextFactor == contrastiveFactor {
			if session.Preference != contrastivePreference {
				return false, "Contrastive entity found in journey but with different preference"
			}
			contrastiveCount++
		}

		if session.ContextFactor == finalFactor {
			preferenceHistory = append(preferenceHistory, session.Preference)
		} else if !containsNorm(allPreferences, session.Preference) {
			return false, "Session's preference not found in list of context factors"
		}
	}

	switch {
	case len(preferenceHistory) > 4:
		return false, "Final factor found more than four times in interaction sessions"
	case len(preferenceHistory) < 4:
		return false, "Final factor found less than four times in interaction sessions"
	case !containsNorm(allPreferences, preferenceHistory[0]):
		return false, "Initial preference not found in list of context factors"
	case contrastiveCount > 2:
		return false, "Contrastive factor found more than twice in interaction sessions"
	case contrastiveCount == 0:
		return false, "Contrastive factor not found in interaction sessions"
	case preferenceHistory[0] == preferenceHistory[1] &&
		preferenceHistory[1] != preferenceHistory[2] &&
		preferenceHistory[2] == preferenceHistory[3] &&
		preferenceHistory[3] == finalPreference:
		return true, "Valid interaction sessions"
	default:
		return false, "Preference did not change as expected in the interaction sessions"
	}
}
