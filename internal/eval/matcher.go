package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/prompts"
)

type matchExampleItem struct {
	entry string
	score float64
}

type matchExample struct {
	preference string
	checklist  []matchExampleItem
}

// matchExamples are the few-shot demonstrations for the general-purpose
// matcher prompt. The fine-tuned matcher model was trained on this task and
// takes no examples.
var matchExamples = []matchExample{
	{
		preference: "Procedures must prioritize equipment security and include hourly weather check requirements before any sampling activity.",
		checklist: []matchExampleItem{
			{"Does the protocol incorporate detailed weather monitoring procedures?", 0.5},
			{"Does the protocol include equipment protection measures?", 0.5},
			{"Does the protocol outline systematic decision-making processes for adapting to changing field conditions during wet season sampling?", 0},
		},
	},
	{
		preference: "Test results should focus primarily on user engagement metrics and social interaction patterns between participants.",
		checklist: []matchExampleItem{
			{"Does the analysis protocol thoroughly explore player engagement?", 0.5},
			{"Does the analysis protocol thoroughly explore collaboration?", 0.5},
			{"Does the analysis protocol thoroughly explore competition?", 0},
			{"Does the analysis protocol provide actionable insights to enhance the AR mini-game's social dynamics and overall player experience?", 0.5},
		},
	},
	{
		preference: "Solutions must strictly adhere to established military doctrine and proven tactical approaches, avoiding experimental or innovative methods.",
		checklist: []matchExampleItem{
			{"Does the training plan align with established military standards?", 1},
			{"Is the training plan clear?", 0.5},
			{"Is the training plan structured?", 1},
			{"Does the training plan include objective, data-driven performance evaluation criteria?", 1},
		},
	},
	{
		preference: "Presentation content must use formal academic language and technical terminology with precise timing structures.",
		checklist: []matchExampleItem{
			{"Is the presentation structured formally?", 1},
			{"Does the presentation incorporate discipline-specific terminology?", 0.5},
			{"Does the presentation provide a clear time allocation for each section within the keynote speech format?", 0.5},
		},
	},
	{
		preference: "Authentication checks must be completed within 15 minutes and focus only on critical identifying features identified in standard guides.",
		checklist: []matchExampleItem{
			{"Does the procedure prioritize key distinctive features of military stamps?", 0},
			{"Does the procedure allow for efficient verification within time constraints?", 1},
			{"Does the procedure adhere to established philatelic standards for accuracy?", 0},
		},
	},
	{
		preference: "Statistical findings should be presented primarily through player impact stories and career trajectories.",
		checklist: []matchExampleItem{
			{"Does the presentation clearly communicate the analytics team's impact?", 0.5},
			{"Does the presentation use engaging narratives?", 0.5},
			{"Does the presentation include relatable examples?", 0.5},
		},
	},
	{
		preference: "All scientific analysis must prioritize identifying and correcting misconceptions, regardless of the documentary's artistic merit.",
		checklist: []matchExampleItem{
			{"Does the analysis critically assess each segment for oversimplification?", 0},
			{"Does the analysis critically assess each segment for inaccuracies?", 1},
			{"Does the analysis provide detailed scientific corrections for any identified issues?", 0.5},
			{"Does the analysis provide detailed scientific clarifications for any identified issues?", 0.5},
		},
	},
	{
		preference: "Review processes must prioritize comprehensive stakeholder input over speed, with extended review periods.",
		checklist: []matchExampleItem{
			{"Do the procedures outline structured review stages?", 1},
			{"Are stakeholder responsibilities clearly assigned in the procedures?", 1},
			{"Do the procedures provide adequate timelines for feedback?", 0.5},
			{"Do the procedures apply to all content types to ensure comprehensive input?", 0},
		},
	},
}

// scoreToLabel converts a numeric coverage score to its label.
func scoreToLabel(score float64) string {
	switch score {
	case 1:
		return "Fully Covered"
	case 0.5:
		return "Partially Covered"
	default:
		return "Not Covered"
	}
}

func renderExamples() (string, error) {
	var b strings.Builder
	for _, example := range matchExamples {
		fmt.Fprintf(&b, "#### Preference\n\n%s\n\n#### Output\n\n```json\n", example.preference)

		doc := struct {
			Results []MatchEntry `json:"results"`
		}{}
		for i, item := range example.checklist {
			doc.Results = append(doc.Results, MatchEntry{
				Index: i + 1,
				Entry: item.entry,
				Label: scoreToLabel(item.score),
			})
		}
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", err
		}
		b.Write(raw)
		b.WriteString("\n```\n\n---\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}

// Matcher labels how well each checklist item is covered by a preference.
// With the fine-tuned matcher model it uses a bare prompt and expects a raw
// JSON array; any other model gets the few-shot prompt.
type Matcher struct {
	gen       *prompt.Generator
	finetuned bool
}

func NewMatcher(g llm.Generator, model string) (*Matcher, error) {
	finetuned := model == llm.PrefMatcherModel
	path := "evaluation/preference_matcher.yaml"
	if finetuned {
		path = "evaluation/preference_matcher_model.yaml"
	}
	tmpl, err := prompt.Load(prompts.FS, path)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		gen:       prompt.NewGenerator(g, model, tmpl, llm.Options{Temperature: 0, MaxTokens: 8192}),
		finetuned: finetuned,
	}, nil
}

// Match labels each checklist item against the preference.
func (m *Matcher) Match(ctx context.Context, checklist []string, preference string) ([]MatchEntry, error) {
	var numbered []string
	for i, entry := range checklist {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, entry))
	}

	vars := map[string]any{
		"checklist":  strings.Join(numbered, "\n"),
		"preference": preference,
	}
	if !m.finetuned {
		examples, err := renderExamples()
		if err != nil {
			return nil, err
		}
		vars["examples"] = examples
	}

	out, err := m.gen.Call(ctx, vars)
	if err != nil {
		return nil, err
	}

	if m.finetuned {
		var entries []MatchEntry
		if err := parse.JSONBlock(out, &entries); err != nil {
			return nil, fmt.Errorf("parsing matcher output: %w", err)
		}
		return entries, nil
	}

	var parsed struct {
		Results []MatchEntry `json:"results"`
	}
	if err := parse.JSONBlock(out, &parsed); err != nil {
		return nil, fmt.Errorf("parsing matcher output: %w", err)
	}
	return parsed.Results, nil
}
