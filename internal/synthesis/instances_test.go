package synthesis

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kairos-eval/prefbench/internal/llm"
)

func completeData() PersonaData {
	sessions := validSessions()
	for i := range sessions {
		sessions[i].Checklist = []string{"item for " + sessions[i].Preference}
	}

	var interactions []Interaction
	for _, s := range sessions {
		interactions = append(interactions, Interaction{
			SessionID:  s.ID,
			Preference: s.Preference,
			Checklist:  s.Checklist,
			Chat: []llm.Message{
				{Role: "user", Content: s.RequestWithFactor},
				{Role: "assistant", Content: "reply"},
			},
		})
	}
	return PersonaData{ContextFactors: pairFactors(), Sessions: sessions, Interactions: interactions}
}

func sessionIDs(priors []PriorInteraction, data PersonaData) []int {
	requestToID := map[string]int{}
	for _, s := range data.Sessions {
		requestToID[s.RequestWithFactor] = s.ID
	}
	var ids []int
	for _, p := range priors {
		ids = append(ids, requestToID[p.Dialogue[0].Content])
	}
	return ids
}

func TestDeriveInstances(t *testing.T) {
	data := completeData()
	instances, err := DeriveInstances(data, "0+map_historian", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, instances, 3)

	consistent, contrastive, changing := instances[0], instances[1], instances[2]

	require.Equal(t, "consistent", consistent.InstanceType)
	require.Equal(t, "contrastive", contrastive.InstanceType)
	require.Equal(t, "changing", changing.InstanceType)

	// All three share the final request and persona id.
	for _, inst := range instances {
		require.Equal(t, "0+map_historian", inst.PersonaID)
		require.Equal(t, "r8", inst.CurrentRequest)
		require.Equal(t, "Archival research", inst.CurrentContextFactor)
	}

	// Consistent and contrastive share the original ground truth; changing
	// carries the final session's changed preference.
	require.Equal(t, "cite primary sources", consistent.CurrentContextualPreference)
	require.Equal(t, consistent.CurrentChecklist, contrastive.CurrentChecklist)
	require.Equal(t, "summarize findings up front", changing.CurrentContextualPreference)

	// Sessions 6 and 7 are the only fillers, so both are always excluded.
	require.Equal(t, []int{1, 2}, sessionIDs(consistent.PriorInteractions, data))
	require.Equal(t, []int{1, 2, 3}, sessionIDs(contrastive.PriorInteractions, data))
	require.Equal(t, []int{1, 2, 4, 5}, sessionIDs(changing.PriorInteractions, data))

	require.Equal(t, "Field survey", contrastive.PriorInteractions[2].ContextFactor)
	require.Equal(t, "prioritize practical steps", contrastive.PriorInteractions[2].ContextualPreference)
}

func TestDeriveInstancesNotEnoughFiller(t *testing.T) {
	data := completeData()
	// Turn one filler session into a contrastive one, leaving a single filler.
	data.Sessions[6].ContextFactor = "Field survey"
	data.Sessions[6].Preference = "prioritize practical steps"

	_, err := DeriveInstances(data, "0+map_historian", rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrNotEnoughSessions)
}

func TestDeriveInstancesIncomplete(t *testing.T) {
	data := completeData()
	data.Interactions = data.Interactions[:3]

	_, err := DeriveInstances(data, "0+map_historian", rand.New(rand.NewSource(1)))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotEnoughSessions)
}
