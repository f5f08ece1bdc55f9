package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/kairos-eval/prefbench/internal/llm"
)

// Generator binds a template to a model and parameters; every Call
// substitutes the vars into both prompts, performs one completion, and
// returns the trimmed text. Output parsing stays with the caller.
type Generator struct {
	gen   llm.Generator
	model string
	tmpl  *Template
	opts  llm.Options
}

func NewGenerator(gen llm.Generator, model string, tmpl *Template, opts llm.Options) *Generator {
	return &Generator{gen: gen, model: model, tmpl: tmpl, opts: opts}
}

func (g *Generator) Call(ctx context.Context, vars map[string]any) (string, error) {
	system, err := Render(g.tmpl.SystemPrompt, vars)
	if err != nil {
		return "", err
	}
	user, err := Render(g.tmpl.UserPrompt, vars)
	if err != nil {
		return "", err
	}

	out, err := g.gen.Generate(ctx, g.model, system, user, g.opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ChatGenerator accumulates a chat transcript against a fixed system prompt.
// The transcript is append-only; retries roll back to a checkpoint instead of
// mutating history in place.
type ChatGenerator struct {
	gen    llm.Generator
	model  string
	system string
	opts   llm.Options
	log    []llm.Message
}

// NewChatGenerator renders the template's system prompt with vars and seeds
// the transcript with initial, when given.
func NewChatGenerator(gen llm.Generator, model string, tmpl *Template, vars map[string]any, initial *llm.Message, opts llm.Options) (*ChatGenerator, error) {
	system, err := Render(tmpl.SystemPrompt, vars)
	if err != nil {
		return nil, err
	}

	c := &ChatGenerator{gen: gen, model: model, system: system, opts: opts}
	if initial != nil {
		c.log = append(c.log, *initial)
	}
	return c, nil
}

// Send appends message as a user turn, generates the assistant reply, and
// appends it to the transcript.
func (c *ChatGenerator) Send(ctx context.Context, message string) (string, error) {
	c.log = append(c.log, llm.Message{Role: "user", Content: message})

	out, err := c.gen.GenerateChat(ctx, c.model, c.system, c.log, c.opts)
	if err != nil {
		// Drop the unanswered user turn so the transcript stays paired.
		c.log = c.log[:len(c.log)-1]
		return "", err
	}

	out = strings.TrimSpace(out)
	c.log = append(c.log, llm.Message{Role: "assistant", Content: out})
	return out, nil
}

// Checkpoint returns the current transcript length.
func (c *ChatGenerator) Checkpoint() int {
	return len(c.log)
}

// Rollback truncates the transcript to a previous checkpoint.
func (c *ChatGenerator) Rollback(cp int) error {
	if cp < 0 || cp > len(c.log) {
		return fmt.Errorf("prompt: rollback to %d outside transcript of %d turns", cp, len(c.log))
	}
	c.log = c.log[:cp]
	return nil
}

// History returns a copy of the transcript.
func (c *ChatGenerator) History() []llm.Message {
	cp := make([]llm.Message, len(c.log))
	copy(cp, c.log)
	return cp
}
