// Package persona samples diverse persona templates from a seed corpus and
// turns them into full persona descriptions with a language model.
package persona

// Persona is one synthetic user. The attribute fields come from the template
// sampler; Description and Occupation are filled in by the generator.
type Persona struct {
	ID                  int      `json:"id"`
	Seed                string   `json:"seed"`
	CareerLevel         string   `json:"career_level"`
	PersonalityTraits   []string `json:"personality_traits"`
	PersonalValues      []string `json:"personal_values"`
	DecisionMakingStyle string   `json:"decision_making_styles"`
	Description         string   `json:"description"`
	Occupation          string   `json:"occupation"`
}
