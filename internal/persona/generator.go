package persona

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/prompts"
)

const generatorBatchSize = 4

// Generator fills in persona descriptions and occupations from templates,
// batching several templates into one model call.
type Generator struct {
	gen *prompt.Generator
}

func NewGenerator(g llm.Generator, model string) (*Generator, error) {
	tmpl, err := prompt.Load(prompts.FS, "synthesis/persona_generator.yaml")
	if err != nil {
		return nil, err
	}
	return &Generator{
		gen: prompt.NewGenerator(g, model, tmpl, llm.Options{Temperature: 0.7, MaxTokens: 4096}),
	}, nil
}

type generatedPersona struct {
	Description string `json:"description"`
	Occupation  string `json:"occupation"`
}

type generatorOutput struct {
	Personas []generatedPersona `json:"personas"`
}

func templateLine(n int, p Persona) string {
	return fmt.Sprintf("%d. seed: %q, career_level: %q, personality_traits: [%s], personal_values: [%s], decision_making_styles: %q",
		n, p.Seed, p.CareerLevel,
		strings.Join(p.PersonalityTraits, ", "),
		strings.Join(p.PersonalValues, ", "),
		p.DecisionMakingStyle)
}

// Generate expands every template into a full persona. Batches are processed
// in order; a failed batch fails the whole call since partially described
// personas are not usable downstream.
func (g *Generator) Generate(ctx context.Context, templates []Persona) ([]Persona, error) {
	personas := make([]Persona, 0, len(templates))
	nBatches := (len(templates) + generatorBatchSize - 1) / generatorBatchSize

	for i := 0; i < len(templates); i += generatorBatchSize {
		batch := templates[i:min(i+generatorBatchSize, len(templates))]

		var lines []string
		for j, p := range batch {
			lines = append(lines, templateLine(j+1, p))
		}
		slog.Info("generating persona batch", "batch", i/generatorBatchSize+1, "total", nBatches)

		out, err := g.gen.Call(ctx, map[string]any{"seed_descriptions": strings.Join(lines, "\n")})
		if err != nil {
			return nil, fmt.Errorf("persona batch %d: %w", i/generatorBatchSize+1, err)
		}

		var parsed generatorOutput
		if err := parse.JSONBlock(out, &parsed); err != nil {
			return nil, fmt.Errorf("persona batch %d: %w", i/generatorBatchSize+1, err)
		}
		if len(parsed.Personas) != len(batch) {
			return nil, fmt.Errorf("persona batch %d: got %d personas, want %d", i/generatorBatchSize+1, len(parsed.Personas), len(batch))
		}

		for j, gp := range parsed.Personas {
			p := batch[j]
			p.Description = gp.Description
			p.Occupation = gp.Occupation
			personas = append(personas, p)
		}
	}
	return personas, nil
}
