package synthesis

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/store"
)

// instanceDuplicates is how many sessions repeat the main factor per label,
// and also how many filler sessions get excluded from every instance to keep
// prior-interaction counts comparable across instance types.
const instanceDuplicates = 2

// ErrNotEnoughSessions marks a persona whose session tree leaves fewer than
// two filler sessions, which makes the three instance variants incomparable.
var ErrNotEnoughSessions = errors.New("not enough sessions to create instances")

// PriorInteraction is one past dialogue as an evaluated model sees it.
type PriorInteraction struct {
	ContextFactor        string        `json:"context_factor"`
	ContextualPreference string        `json:"contextual_preference"`
	Dialogue             []llm.Message `json:"dialogue"`
}

// Instance is one evaluation unit: the held-out request, the interaction
// history visible to the candidate, and the ground-truth preference with its
// checklist.
type Instance struct {
	PersonaID                   string             `json:"persona_id"`
	InstanceType                string             `json:"instance_type"`
	CurrentRequest              string             `json:"current_request"`
	CurrentContextFactor        string             `json:"current_context_factor"`
	CurrentContextualPreference string             `json:"current_contextual_preference"`
	CurrentChecklist            []string           `json:"current_checklist"`
	PriorInteractions           []PriorInteraction `json:"prior_interactions"`
}

func priorInteractions(data PersonaData, excluded map[int]bool) []PriorInteraction {
	sessionByID := map[int]Session{}
	for _, s := range data.Sessions {
		sessionByID[s.ID] = s
	}

	out := []PriorInteraction{}
	for _, interaction := range data.Interactions[:len(data.Interactions)-1] {
		session, ok := sessionByID[interaction.SessionID]
		if !ok || excluded[interaction.SessionID] {
			continue
		}
		out = append(out, PriorInteraction{
			ContextFactor:        session.ContextFactor,
			ContextualPreference: session.Preference,
			Dialogue:             interaction.Chat,
		})
	}
	return out
}

func union(sets ...[]int) map[int]bool {
	out := map[int]bool{}
	for _, set := range sets {
		for _, id := range set {
			out[id] = true
		}
	}
	return out
}

// DeriveInstances partitions a persona's sessions by role and emits the
// consistent, contrastive, and changing instance for it. All three share the
// final request; they differ in which prior interactions the candidate gets
// to see and, for changing, in the ground truth.
func DeriveInstances(data PersonaData, dataName string, rng *rand.Rand) ([]Instance, error) {
	if len(data.Sessions) == 0 || len(data.Interactions) != len(data.Sessions) {
		return nil, fmt.Errorf("incomplete artifact tree for %s", dataName)
	}

	final := data.Sessions[len(data.Sessions)-1]
	mainFactor := final.ContextFactor

	var contrastiveFactor string
	for _, factor := range data.ContextFactors {
		if factor.RelatedFactor == mainFactor {
			contrastiveFactor = factor.Factor
			break
		}
	}

	var consistentSession *Session
	var consistentIDs, contrastiveIDs, changingIDs []int
	for i, session := range data.Sessions[:len(data.Sessions)-1] {
		switch {
		case session.ContextFactor == mainFactor && len(consistentIDs) < instanceDuplicates:
			consistentSession = &data.Sessions[i]
			consistentIDs = append(consistentIDs, session.ID)
		case session.ContextFactor == contrastiveFactor:
			contrastiveIDs = append(contrastiveIDs, session.ID)
		case session.ContextFactor == mainFactor:
			changingIDs = append(changingIDs, session.ID)
		}
	}
	if consistentSession == nil {
		return nil, fmt.Errorf("no session with main factor for %s", dataName)
	}

	used := union(consistentIDs, contrastiveIDs, changingIDs)
	var filler []int
	for _, session := range data.Sessions[:len(data.Sessions)-1] {
		if !used[session.ID] {
			filler = append(filler, session.ID)
		}
	}
	if len(filler) < instanceDuplicates {
		return nil, ErrNotEnoughSessions
	}
	rng.Shuffle(len(filler), func(i, j int) { filler[i], filler[j] = filler[j], filler[i] })
	randomIDs := filler[:instanceDuplicates]

	currentRequest := data.Interactions[len(data.Interactions)-1].Chat[0].Content

	base := Instance{
		PersonaID:            dataName,
		CurrentRequest:       currentRequest,
		CurrentContextFactor: mainFactor,
	}

	consistent := base
	consistent.InstanceType = "consistent"
	consistent.CurrentContextualPreference = consistentSession.Preference
	consistent.CurrentChecklist = consistentSession.Checklist
	consistent.PriorInteractions = priorInteractions(data, union(randomIDs, contrastiveIDs, changingIDs))

	contrastive := consistent
	contrastive.InstanceType = "contrastive"
	contrastive.PriorInteractions = priorInteractions(data, union(randomIDs, changingIDs))

	changing := base
	changing.InstanceType = "changing"
	changing.CurrentContextualPreference = final.Preference
	changing.CurrentChecklist = final.Checklist
	changing.PriorInteractions = priorInteractions(data, union(randomIDs, contrastiveIDs))

	return []Instance{consistent, contrastive, changing}, nil
}

// CreateInstances derives and persists instances for every completed persona
// artifact under outputDir/data. Incomplete personas are logged and skipped.
func CreateInstances(outputDir string, rng *rand.Rand) error {
	dataDir := filepath.Join(outputDir, "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return fmt.Errorf("reading data directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		dataName := strings.TrimSuffix(entry.Name(), ".json")

		var data PersonaData
		ok, err := store.Load(filepath.Join(dataDir, entry.Name()), &data)
		if err != nil || !ok {
			slog.Warn("skipping unreadable persona data", "file", entry.Name(), "error", err)
			continue
		}
		if data.ContextFactors == nil || data.Sessions == nil || data.Interactions == nil {
			slog.Warn("skipping persona with missing phases", "file", entry.Name())
			continue
		}

		instances, err := DeriveInstances(data, dataName, rng)
		if err != nil {
			slog.Warn("skipping persona", "file", entry.Name(), "reason", err)
			continue
		}
		for _, instance := range instances {
			path := store.InstancePath(outputDir, dataName, instance.InstanceType)
			if err := store.Save(path, instance); err != nil {
				return err
			}
		}
		slog.Info("instances created", "persona", dataName)
	}
	return nil
}
