package synthesis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/prompts"
)

// Decomposer turns a free-text preference into a checklist of atomic,
// verifiable items. Results are cached per preference text so repeated
// preferences in a session series cost one call.
type Decomposer struct {
	gen   *prompt.Generator
	cache map[string][]string
}

func NewDecomposer(g llm.Generator, model string) (*Decomposer, error) {
	tmpl, err := prompt.Load(prompts.FS, "synthesis/preference_decomposer.yaml")
	if err != nil {
		return nil, err
	}
	return &Decomposer{
		gen:   prompt.NewGenerator(g, model, tmpl, llm.Options{Temperature: 0, MaxTokens: 4096}),
		cache: map[string][]string{},
	}, nil
}

// Decompose returns the checklist for one preference.
func (d *Decomposer) Decompose(ctx context.Context, preference string) ([]string, error) {
	if checklist, ok := d.cache[preference]; ok {
		return checklist, nil
	}

	out, err := d.gen.Call(ctx, map[string]any{"preferences": preference})
	if err != nil {
		return nil, fmt.Errorf("decomposing preference: %w", err)
	}

	var parsed struct {
		Checklist []string `json:"checklist"`
	}
	if err := parse.JSONBlock(out, &parsed); err != nil {
		return nil, fmt.Errorf("parsing checklist: %w", err)
	}

	d.cache[preference] = parsed.Checklist
	return parsed.Checklist, nil
}

// DecomposeSessions fills the Checklist field of every session in place.
func (d *Decomposer) DecomposeSessions(ctx context.Context, sessions []Session) error {
	for i := range sessions {
		checklist, err := d.Decompose(ctx, sessions[i].Preference)
		if err != nil {
			return err
		}
		sessions[i].Checklist = checklist
		slog.Debug("decomposed session preference", "session", sessions[i].ID, "items", len(checklist))
	}
	return nil
}
