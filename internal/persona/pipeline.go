package persona

import (
	"context"
	"log/slog"

	"github.com/kairos-eval/prefbench/internal/corpus"
	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/store"
)

// sampling is seeded so repeated runs over the same corpus draw the same
// templates.
const samplerSeed = 42

// Ensure loads personas.json from outputDir and tops it up to n personas,
// sampling fresh seeds from corpusPath for the missing ones. Already persisted
// personas are never regenerated; their seeds are excluded from new draws.
func Ensure(ctx context.Context, gen llm.Generator, model string, n int, outputDir, corpusPath string) ([]Persona, error) {
	path := store.PersonasPath(outputDir)

	var personas []Persona
	if _, err := store.Load(path, &personas); err != nil {
		return nil, err
	}
	if len(personas) >= n {
		slog.Info("personas already generated", "count", len(personas), "path", path)
		return personas, nil
	}

	records, err := corpus.LoadRecords(corpusPath)
	if err != nil {
		return nil, err
	}

	used := map[string]bool{}
	for _, p := range personas {
		used[p.Seed] = true
	}

	sampler := NewTemplateSampler(records, samplerSeed)
	templates, err := sampler.Sample(n-len(personas), len(personas), used)
	if err != nil {
		return nil, err
	}
	slog.Info("sampled persona templates", "count", len(templates))

	generator, err := NewGenerator(gen, model)
	if err != nil {
		return nil, err
	}
	fresh, err := generator.Generate(ctx, templates)
	if err != nil {
		return nil, err
	}

	personas = append(personas, fresh...)
	if err := store.Save(path, personas); err != nil {
		return nil, err
	}
	slog.Info("personas saved", "count", len(personas), "path", path)
	return personas, nil
}
