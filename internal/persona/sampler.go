package persona

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/kairos-eval/prefbench/internal/corpus"
)

type attribute struct {
	name     string
	nChoices int
	options  []string
	// traitOf maps a polarized option ("High Openness to Experience") back to
	// its base trait so the sampler never picks both poles of the same trait.
	traitOf map[string]string
	counts  []int
}

func levelled(levels, options []string) ([]string, map[string]string) {
	var out []string
	traitOf := map[string]string{}
	for _, opt := range options {
		for _, lvl := range levels {
			full := lvl + " " + opt
			out = append(out, full)
			traitOf[full] = opt
		}
	}
	return out, traitOf
}

func newAttributes() []*attribute {
	traits, traitOf := levelled(
		[]string{"High", "Low"},
		[]string{"Openness to Experience", "Conscientiousness", "Extroversion", "Agreeableness", "Neuroticism"},
	)

	attrs := []*attribute{
		{
			name:     "career_level",
			nChoices: 1,
			options: []string{
				"entry-level/beginner/junior/novice",
				"mid-level/intermediate/experienced/associate",
				"senior-level/advanced/lead/expert",
			},
		},
		{
			name:     "personality_traits",
			nChoices: 2,
			options:  traits,
			traitOf:  traitOf,
		},
		{
			name:     "personal_values",
			nChoices: 2,
			options: []string{
				"Self-Direction", "Achievement", "Universalism", "Power", "Stimulation",
				"Benevolence", "Security", "Tradition", "Conformity", "Hedonism",
			},
		},
		{
			name:     "decision_making_styles",
			nChoices: 1,
			options:  []string{"Analytical", "Directive", "Conceptual", "Behavioral"},
		},
	}
	for _, a := range attrs {
		a.counts = make([]int, len(a.options))
	}
	return attrs
}

// TemplateSampler draws seed records from the corpus and assigns each one a
// balanced set of persona attributes. Attribute balance is kept across a
// sampler's lifetime: every draw restricts itself to the least-used half of
// each attribute's options.
type TemplateSampler struct {
	seeds *corpus.Sampler
	attrs []*attribute
	rng   *rand.Rand
}

// NewTemplateSampler builds a sampler over the given seed corpus. The seed
// fixes both corpus draws and attribute draws, so runs are reproducible.
func NewTemplateSampler(records []corpus.Record, seed int64) *TemplateSampler {
	return &TemplateSampler{
		seeds: corpus.NewSampler(records, seed),
		attrs: newAttributes(),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// pick selects n options for one attribute, favoring the least-selected half
// and never pairing both poles of the same personality trait.
func (a *attribute) pick(rng *rand.Rand, n int) []string {
	idx := make([]int, len(a.options))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return a.counts[idx[i]] < a.counts[idx[j]] })

	var pool []string
	for _, i := range idx {
		if float64(len(pool)) >= float64(len(a.options))/2 {
			break
		}
		pool = append(pool, a.options[i])
	}

	var selected []string
	for len(selected) < n {
		choice := pool[rng.Intn(len(pool))]
		if a.traitOf != nil && a.conflicts(choice, selected) {
			continue
		}
		selected = append(selected, choice)
		for i, p := range pool {
			if p == choice {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
		for i, opt := range a.options {
			if opt == choice {
				a.counts[i]++
				break
			}
		}
	}
	return selected
}

func (a *attribute) conflicts(choice string, selected []string) bool {
	trait := a.traitOf[choice]
	for _, s := range selected {
		if strings.HasSuffix(s, trait) {
			return true
		}
	}
	return false
}

// Sample returns n persona templates with description and occupation still
// empty. Seeds already present in used are skipped and newly drawn seeds are
// added to it. IDs start at firstID.
func (s *TemplateSampler) Sample(n, firstID int, used map[string]bool) ([]Persona, error) {
	records, err := s.seeds.Sample(n, used)
	if err != nil {
		return nil, fmt.Errorf("sampling persona seeds: %w", err)
	}

	templates := make([]Persona, 0, n)
	for i, rec := range records {
		p := Persona{ID: firstID + i, Seed: rec.InputPersona}
		for _, a := range s.attrs {
			vals := a.pick(s.rng, a.nChoices)
			switch a.name {
			case "career_level":
				p.CareerLevel = vals[0]
			case "personality_traits":
				p.PersonalityTraits = vals
			case "personal_values":
				p.PersonalValues = vals
			case "decision_making_styles":
				p.DecisionMakingStyle = vals[0]
			}
		}
		templates = append(templates, p)
	}
	return templates, nil
}
