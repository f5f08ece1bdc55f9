package synthesis

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/persona"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/prompts"
)

const (
	seriesConsistent  = 4
	seriesContrastive = 2
)

// SessionsGenerator plans the ordered session series for one persona. The
// series structure (which positions repeat the main factor, where the
// preference flips, where the contrastive factor appears) is sampled locally
// and handed to the model as an explicit outline.
type SessionsGenerator struct {
	gen *prompt.Generator
	rng *rand.Rand
}

func NewSessionsGenerator(g llm.Generator, model string, rng *rand.Rand) (*SessionsGenerator, error) {
	tmpl, err := prompt.Load(prompts.FS, "synthesis/sessions_generator.yaml")
	if err != nil {
		return nil, err
	}
	return &SessionsGenerator{
		gen: prompt.NewGenerator(g, model, tmpl, llm.Options{Temperature: 0.7, MaxTokens: 8192}),
		rng: rng,
	}, nil
}

// seriesStructure lays out the anchored scenario positions. The final session
// always carries factor A; the sampled positions give two sessions with the
// original preference A, two with the changed preference A', and two with the
// contrastive factor B.
func (s *SessionsGenerator) seriesStructure(nSessions int) string {
	consistent := s.rng.Perm(nSessions - 2)[:seriesConsistent]
	sort.Ints(consistent)
	consistent = append(consistent, nSessions-1)

	taken := map[int]bool{}
	for _, i := range consistent {
		taken[i] = true
	}
	var remaining []int
	for i := 0; i < nSessions; i++ {
		if !taken[i] {
			remaining = append(remaining, i)
		}
	}
	s.rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	contrastive := map[int]bool{}
	for _, i := range remaining[:seriesContrastive] {
		contrastive[i] = true
	}

	original := map[int]bool{}
	for _, i := range consistent[:len(consistent)/2] {
		original[i] = true
	}
	changed := map[int]bool{}
	for _, i := range consistent[len(consistent)/2:] {
		changed[i] = true
	}

	var b strings.Builder
	for i := 0; i < nSessions; i++ {
		switch {
		case changed[i]:
			fmt.Fprintf(&b, "    - Scenario ID %d: Context factor A with changed preference A'.\n", i+1)
		case original[i]:
			fmt.Fprintf(&b, "    - Scenario ID %d: Context factor A with original preference A.\n", i+1)
		case contrastive[i]:
			fmt.Fprintf(&b, "    - Scenario ID %d: Context factor B with original preference B.\n", i+1)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

type promptFactor struct {
	ContextFactor string   `yaml:"context_factor"`
	Preference    string   `yaml:"preference"`
	TaskTypes     []string `yaml:"task_types"`
}

func factorsToYAML(factors []ContextFactor) (string, error) {
	doc := struct {
		Factors []promptFactor `yaml:"factors"`
	}{}
	for _, f := range factors {
		doc.Factors = append(doc.Factors, promptFactor{
			ContextFactor: f.Factor,
			Preference:    f.Preference,
			TaskTypes:     f.TaskTypes,
		})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *SessionsGenerator) Generate(ctx context.Context, p persona.Persona, factors []ContextFactor, nSessions int) ([]Session, error) {
	var contrastive []ContextFactor
	for _, f := range factors {
		if f.RelatedFactor != noRelatedFactor {
			contrastive = append(contrastive, f)
		}
	}
	if len(contrastive) == 0 {
		return nil, fmt.Errorf("no contrastive factors found")
	}
	if len(contrastive) < 2 {
		contrastive = []ContextFactor{contrastive[0], contrastive[0]}
	}

	factorsYAML, err := factorsToYAML(factors)
	if err != nil {
		return nil, err
	}

	out, err := s.gen.Call(ctx, map[string]any{
		"user_persona":     p.Description,
		"n_sessions":       nSessions,
		"context_factors":  factorsYAML,
		"series_structure": s.seriesStructure(nSessions),
		"first_factor":     contrastive[0].Factor,
		"second_factor":    contrastive[1].Factor,
	})
	if err != nil {
		return nil, fmt.Errorf("generating sessions: %w", err)
	}

	var parsed struct {
		Scenarios []Session `yaml:"scenarios"`
	}
	if err := parse.YAMLBlock(out, &parsed); err != nil {
		return nil, fmt.Errorf("parsing sessions: %w", err)
	}
	return parsed.Scenarios, nil
}
