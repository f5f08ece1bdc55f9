// Package llm provides a uniform call interface over the text-generation
// providers used by the synthesis and evaluation pipelines. Model ids are
// resolved to a provider once at registry construction; a provider whose
// credentials are absent stays unregistered and surfaces
// ErrProviderUnavailable at the call site.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider identifies a text-generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderTogether  Provider = "together"
	ProviderVLLM      Provider = "vllm"
)

var (
	// ErrModelNotFound is returned when a model id matches no provider's table.
	ErrModelNotFound = errors.New("llm: model not found")

	// ErrProviderUnavailable is returned when the provider owning a model id
	// has no credentials configured.
	ErrProviderUnavailable = errors.New("llm: provider unavailable")
)

// ContextLengthError reports that a prompt exceeded the model's context
// window. Pipelines convert it into a degraded (zero-credit) result instead
// of aborting the unit.
type ContextLengthError struct {
	Model string
	Msg   string
}

func (e *ContextLengthError) Error() string {
	return fmt.Sprintf("llm: context length exceeded for %s: %s", e.Model, e.Msg)
}

// IsContextLength reports whether err is (or wraps) a ContextLengthError.
func IsContextLength(err error) bool {
	var cle *ContextLengthError
	return errors.As(err, &cle)
}

// Message is a single role-tagged chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the per-call sampling parameters.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client is one provider's completion surface. Calls are synchronous and
// blocking; no caching, no streaming.
type Client interface {
	Generate(ctx context.Context, model, system string, messages []Message, opts Options) (string, error)
}

// Registry owns the provider clients and the model-id membership table.
type Registry struct {
	clients map[Provider]Client
	models  map[string]Provider
}

// Anthropic model ids the pipeline accepts. Everything else routes by the
// membership rules in resolve.
var anthropicModels = []string{
	"claude-3-7-sonnet-20250219",
	"claude-3-5-sonnet-20241022",
	"claude-3-5-sonnet-20240620",
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"claude-3-haiku-20240307",
	"claude-3-5-haiku-20241022",
}

var togetherPrefixes = []string{
	"meta-llama/", "mistralai/", "deepseek-ai/", "Qwen/",
}

// PrefMatcherModel is the fine-tuned preference matcher, served from the
// local vLLM endpoint.
const PrefMatcherModel = "kixlab/prefmatcher-7b"

// NewRegistry builds the provider clients that have credentials and the
// static model table. The table is resolved once; lookups never mutate it.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		clients: map[Provider]Client{},
		models:  map[string]Provider{},
	}

	if cfg.OpenAIKey != "" {
		r.clients[ProviderOpenAI] = newOpenAIClient(openAIBaseURL, cfg.OpenAIKey, "")
	}
	if cfg.TogetherKey != "" {
		r.clients[ProviderTogether] = newOpenAIClient(togetherBaseURL, cfg.TogetherKey, "")
	}
	if cfg.AnthropicKey != "" {
		r.clients[ProviderAnthropic] = newAnthropicClient(cfg.AnthropicKey)
	}
	if cfg.VLLMHost != "" {
		r.clients[ProviderVLLM] = newOpenAIClient(cfg.VLLMHost+"/v1", "EMPTY", "")
	}

	for _, m := range anthropicModels {
		r.models[m] = ProviderAnthropic
	}
	r.models[PrefMatcherModel] = ProviderVLLM

	return r
}

// resolve maps a model id to its owning provider.
func (r *Registry) resolve(model string) (Provider, error) {
	if p, ok := r.models[model]; ok {
		return p, nil
	}
	for _, prefix := range togetherPrefixes {
		if strings.HasPrefix(model, prefix) {
			return ProviderTogether, nil
		}
	}
	if strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") ||
		strings.HasPrefix(model, "chatgpt-") {
		return ProviderOpenAI, nil
	}
	return "", fmt.Errorf("%w: %q", ErrModelNotFound, model)
}

func (r *Registry) client(model string) (Client, error) {
	p, err := r.resolve(model)
	if err != nil {
		return nil, err
	}
	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("%w: no credentials for %s (model %q)", ErrProviderUnavailable, p, model)
	}
	return c, nil
}

// Generate performs a single-turn completion.
func (r *Registry) Generate(ctx context.Context, model, system, prompt string, opts Options) (string, error) {
	c, err := r.client(model)
	if err != nil {
		return "", err
	}
	return c.Generate(ctx, model, system, []Message{{Role: "user", Content: prompt}}, opts)
}

// GenerateChat performs a completion over an ordered message history. The
// caller owns the history; the reply is returned, not appended.
func (r *Registry) GenerateChat(ctx context.Context, model, system string, messages []Message, opts Options) (string, error) {
	c, err := r.client(model)
	if err != nil {
		return "", err
	}
	return c.Generate(ctx, model, system, messages, opts)
}

// Generator is the minimal surface the pipelines need; Registry and Mock
// both satisfy it.
type Generator interface {
	Generate(ctx context.Context, model, system, prompt string, opts Options) (string, error)
	GenerateChat(ctx context.Context, model, system string, messages []Message, opts Options) (string, error)
}
