package synthesis

import (
	"context"
	"fmt"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/persona"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/prompts"
)

// FactorsGenerator produces the set of context factors for one persona.
type FactorsGenerator struct {
	gen *prompt.Generator
}

func NewFactorsGenerator(g llm.Generator, model string) (*FactorsGenerator, error) {
	tmpl, err := prompt.Load(prompts.FS, "synthesis/context_factors_generator.yaml")
	if err != nil {
		return nil, err
	}
	return &FactorsGenerator{
		gen: prompt.NewGenerator(g, model, tmpl, llm.Options{Temperature: 1.0, MaxTokens: 8192}),
	}, nil
}

func (f *FactorsGenerator) Generate(ctx context.Context, p persona.Persona, nFactors int) ([]ContextFactor, error) {
	out, err := f.gen.Call(ctx, map[string]any{
		"user_persona": p.Description,
		"n_factors":    nFactors,
	})
	if err != nil {
		return nil, fmt.Errorf("generating context factors: %w", err)
	}

	var parsed struct {
		ContextFactors []ContextFactor `yaml:"context_factors"`
	}
	if err := parse.YAMLBlock(out, &parsed); err != nil {
		return nil, fmt.Errorf("parsing context factors: %w", err)
	}
	return parsed.ContextFactors, nil
}
