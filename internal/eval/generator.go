package eval

import (
	"context"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/internal/synthesis"
	"github.com/kairos-eval/prefbench/prompts"
)

// ResponseGenerator asks the candidate model to answer the current request
// given the interaction history.
type ResponseGenerator struct {
	gen *prompt.Generator
}

func NewResponseGenerator(g llm.Generator, candidateModel string) (*ResponseGenerator, error) {
	tmpl, err := prompt.Load(prompts.FS, "evaluation/response_generator.yaml")
	if err != nil {
		return nil, err
	}
	return &ResponseGenerator{
		gen: prompt.NewGenerator(g, candidateModel, tmpl, llm.Options{Temperature: 0, MaxTokens: 8192}),
	}, nil
}

func (r *ResponseGenerator) Generate(ctx context.Context, currentRequest string, priors []synthesis.PriorInteraction) (string, error) {
	return r.gen.Call(ctx, map[string]any{
		"curr_request":    currentRequest,
		"interaction_log": FormatInteractionLog(priors),
	})
}
