package synthesis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pairFactors() []ContextFactor {
	return []ContextFactor{
		{Factor: "Archival research", Preference: "cite primary sources", RelatedFactor: "Field survey"},
		{Factor: "Field survey", Preference: "prioritize practical steps", RelatedFactor: "Archival research"},
		{Factor: "Teaching", Preference: "use concrete examples", RelatedFactor: "N/A"},
		{Factor: "Grant writing", Preference: "stay formal", RelatedFactor: "N/A"},
	}
}

func TestValidateContextFactors(t *testing.T) {
	ok, reason := ValidateContextFactors(pairFactors())
	require.True(t, ok)
	require.Equal(t, "Valid context factors", reason)
}

func TestValidateContextFactorsNoPair(t *testing.T) {
	factors := pairFactors()
	factors[1].RelatedFactor = "N/A"
	ok, reason := ValidateContextFactors(factors)
	require.False(t, ok)
	require.Equal(t, "Invalid number of contrastive pairs found in context factors", reason)
}

func TestValidateContextFactorsTwoPairs(t *testing.T) {
	factors := append(pairFactors(),
		ContextFactor{Factor: "Editing", Preference: "be terse", RelatedFactor: "Drafting"},
		ContextFactor{Factor: "Drafting", Preference: "be expansive", RelatedFactor: "Editing"},
	)
	ok, _ := ValidateContextFactors(factors)
	require.False(t, ok)
}

// validSessions follows the required series shape: the main factor appears
// twice with its original preference, twice with the changed one, the
// contrastive factor appears once, and the final session repeats the main
// factor with the changed preference.
func validSessions() []Session {
	return []Session{
		{ID: 1, ContextFactor: "Archival research", Preference: "cite primary sources", RequestWithFactor: "r1"},
		{ID: 2, ContextFactor: "Archival research", Preference: "cite primary sources", RequestWithFactor: "r2"},
		{ID: 3, ContextFactor: "Field survey", Preference: "prioritize practical steps", RequestWithFactor: "r3"},
		{ID: 4, ContextFactor: "Archival research", Preference: "summarize findings up front", RequestWithFactor: "r4"},
		{ID: 5, ContextFactor: "Archival research", Preference: "summarize findings up front", RequestWithFactor: "r5"},
		{ID: 6, ContextFactor: "Teaching", Preference: "use concrete examples", RequestWithFactor: "r6"},
		{ID: 7, ContextFactor: "Grant writing", Preference: "stay formal", RequestWithFactor: "r7"},
		{ID: 8, ContextFactor: "Archival research", Preference: "summarize findings up front", RequestWithFactor: "r8"},
	}
}

func TestValidateSessionsValid(t *testing.T) {
	ok, reason := ValidateSessions(validSessions(), pairFactors(), 8)
	require.True(t, ok, reason)
	require.Equal(t, "Valid interaction sessions", reason)
}

func TestValidateSessionsWrongCount(t *testing.T) {
	ok, reason := ValidateSessions(validSessions(), pairFactors(), 9)
	require.False(t, ok)
	require.Equal(t, "Invalid number of sessions", reason)
}

func TestValidateSessionsMissingRequest(t *testing.T) {
	sessions := validSessions()
	sessions[2].RequestWithFactor = ""
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.False(t, ok)
	require.Equal(t, "Missing 'request_with_factor' field", reason)
}

func TestValidateSessionsUnknownFactor(t *testing.T) {
	sessions := validSessions()
	sessions[5].ContextFactor = "Gardening"
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.False(t, ok)
	require.Equal(t, "Session's factor not found in list of context factors", reason)
}

func TestValidateSessionsNormalizedFactorAccepted(t *testing.T) {
	sessions := validSessions()
	// Trailing period and whitespace are tolerated when repeating a factor.
	sessions[5].ContextFactor = " Teaching. "
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.True(t, ok, reason)
}

func TestValidateSessionsContrastiveWrongPreference(t *testing.T) {
	sessions := validSessions()
	sessions[2].Preference = "use concrete examples"
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.False(t, ok)
	require.Equal(t, "Contrastive entity found in journey but with different preference", reason)
}

func TestValidateSessionsContrastiveMissing(t *testing.T) {
	sessions := validSessions()
	sessions[2].ContextFactor = "Teaching"
	sessions[2].Preference = "use concrete examples"
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.False(t, ok)
	require.Equal(t, "Contrastive factor not found in interaction sessions", reason)
}

func TestValidateSessionsMainFactorTooOften(t *testing.T) {
	sessions := validSessions()
	sessions[6].ContextFactor = "Archival research"
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.False(t, ok)
	require.Equal(t, "Final factor found more than four times in interaction sessions", reason)
}

func TestValidateSessionsMainFactorTooRare(t *testing.T) {
	sessions := validSessions()
	sessions[4].ContextFactor = "Teaching"
	sessions[4].Preference = "use concrete examples"
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.False(t, ok)
	require.Equal(t, "Final factor found less than four times in interaction sessions", reason)
}

func TestValidateSessionsNoPreferenceChange(t *testing.T) {
	sessions := validSessions()
	for _, i := range []int{3, 4, 7} {
		sessions[i].Preference = "cite primary sources"
	}
	ok, reason := ValidateSessions(sessions, pairFactors(), 8)
	require.False(t, ok)
	require.Equal(t, "Preference did not change as expected in the interaction sessions", reason)
}
