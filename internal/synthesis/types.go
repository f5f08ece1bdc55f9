// Package synthesis builds the per-persona artifact tree: context factors,
// ordered interaction sessions, and simulated multi-turn dialogues, then
// derives labeled evaluation instances from it.
package synthesis

import "github.com/kairos-eval/prefbench/internal/llm"

// ContextFactor is one situational attribute and the preference it induces.
// Two factors form a contrastive pair when their RelatedFactor fields
// reference each other; every other factor carries "N/A".
type ContextFactor struct {
	Factor        string   `json:"factor" yaml:"factor"`
	Preference    string   `json:"preference" yaml:"preference"`
	RelatedFactor string   `json:"related_factor" yaml:"related_factor"`
	TaskTypes     []string `json:"task_types" yaml:"task_types"`
}

// Session is one planned conversation scenario. Resource is optional; when
// present it replaces the "[resource]" placeholder in RequestWithFactor.
// Checklist is filled in by the preference decomposer after validation.
type Session struct {
	ID                int      `json:"id" yaml:"id"`
	ContextFactor     string   `json:"context_factor" yaml:"context_factor"`
	Preference        string   `json:"preference" yaml:"preference"`
	RequestWithFactor string   `json:"request_with_factor" yaml:"request_with_factor"`
	Resource          *string  `json:"resource,omitempty" yaml:"resource,omitempty"`
	Checklist         []string `json:"checklist,omitempty" yaml:"checklist,omitempty"`
}

// Interaction is one simulated dialogue for a session. Chat alternates
// user/assistant turns starting from the user's opening request.
type Interaction struct {
	SessionID   int           `json:"session_id"`
	Preference  string        `json:"preference"`
	Checklist   []string      `json:"checklist"`
	Chat        []llm.Message `json:"chat"`
	IsSatisfied bool          `json:"is_satisfied"`
}

// PersonaData is the persisted artifact tree for one persona. Nil slices mark
// phases not yet completed, which is what makes the pipeline resumable.
type PersonaData struct {
	ContextFactors []ContextFactor `json:"context_factors,omitempty"`
	Sessions       []Session       `json:"sessions,omitempty"`
	Interactions   []Interaction   `json:"interactions,omitempty"`
}
