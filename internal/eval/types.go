// Package eval runs candidate models through the four-stage evaluation
// pipeline (infer, match, generate, judge) and aggregates the outcomes.
package eval

// Task selects which evaluation stages run.
type Task string

const (
	TaskInference  Task = "inference"
	TaskGeneration Task = "generation"
	TaskBoth       Task = "both"
)

// Valid reports whether t names a known task.
func (t Task) Valid() bool {
	return t == TaskInference || t == TaskGeneration || t == TaskBoth
}

func (t Task) includesInference() bool  { return t == TaskInference || t == TaskBoth }
func (t Task) includesGeneration() bool { return t == TaskGeneration || t == TaskBoth }

// ContextLengthSentinel is stored in place of model output when the instance
// does not fit the candidate's context window. It scores zero instead of
// failing the run.
const ContextLengthSentinel = "ERROR: Context length exceeded"

// PreferenceChecklist is a preference with its decomposed checklist.
type PreferenceChecklist struct {
	Preference string   `json:"preference"`
	Checklist  []string `json:"checklist"`
}

// MatchEntry is a coverage verdict for one checklist item.
type MatchEntry struct {
	Index int    `json:"index,omitempty"`
	Entry string `json:"entry"`
	Label string `json:"label"`
}

// Match holds the two matching directions: inferred checklist against the
// true preference, and true checklist against the inferred preference.
type Match struct {
	InferToGT []MatchEntry `json:"infer_to_gt"`
	GTToInfer []MatchEntry `json:"gt_to_infer"`
}

// Alignment is the judge's verdict on a generated response. Score stays
// loosely typed: judges reply with strings like "8", "7/10" or "**9**", and
// normalization happens at aggregation time.
type Alignment struct {
	Score    any    `json:"score"`
	Analysis string `json:"analysis"`
}

// InferenceResult is the persisted state of the inference stages. Nil
// pointers mark stages not yet run; that is what makes reruns resume instead
// of recompute.
type InferenceResult struct {
	Inferred    *PreferenceChecklist `json:"inferred,omitempty"`
	Groundtruth *PreferenceChecklist `json:"groundtruth,omitempty"`
	Match       *Match               `json:"match,omitempty"`
}

// GenerationResult is the persisted state of the generation stages.
type GenerationResult struct {
	UserRequest string     `json:"user_request,omitempty"`
	AIResponse  *string    `json:"ai_response,omitempty"`
	Alignment   *Alignment `json:"alignment,omitempty"`
}

// Result is the full per-instance result file.
type Result struct {
	Inference  InferenceResult  `json:"inference"`
	Generation GenerationResult `json:"generation"`
}
