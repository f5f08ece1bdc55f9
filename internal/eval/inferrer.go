package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/internal/synthesis"
	"github.com/kairos-eval/prefbench/prompts"
)

const preferenceMarker = "### Most Likely Preference"

// Inferrer asks the candidate model to infer the active preference from the
// interaction history, then decomposes it into a checklist with the
// decomposer model.
type Inferrer struct {
	gen        *prompt.Generator
	decomposer *synthesis.Decomposer
}

func NewInferrer(g llm.Generator, candidateModel string, decomposer *synthesis.Decomposer) (*Inferrer, error) {
	tmpl, err := prompt.Load(prompts.FS, "evaluation/preference_inferrer.yaml")
	if err != nil {
		return nil, err
	}
	return &Inferrer{
		gen:        prompt.NewGenerator(g, candidateModel, tmpl, llm.Options{Temperature: 0, MaxTokens: 8192}),
		decomposer: decomposer,
	}, nil
}

// Infer returns the candidate's inferred preference and its checklist.
func (inf *Inferrer) Infer(ctx context.Context, currentRequest string, priors []synthesis.PriorInteraction) (string, []string, error) {
	out, err := inf.gen.Call(ctx, map[string]any{
		"curr_request":    currentRequest,
		"interaction_log": FormatInteractionLog(priors),
	})
	if err != nil {
		return "", nil, err
	}

	_, after, ok := strings.Cut(out, preferenceMarker)
	if !ok {
		return "", nil, fmt.Errorf("inference output missing %q marker", preferenceMarker)
	}
	preference, _, _ := strings.Cut(strings.TrimSpace(after), "\n")
	preference = strings.TrimSpace(preference)

	checklist, err := inf.decomposer.Decompose(ctx, preference)
	if err != nil {
		return "", nil, err
	}
	return preference, checklist, nil
}
