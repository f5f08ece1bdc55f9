package eval

import (
	"context"
	"strings"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/prompts"
)

const scoreHeader = "### Evaluation Score"

var judgeParser = parse.NewSectionParser(
	parse.Section{Header: scoreHeader, Required: true},
)

// Judge scores a generated response against the ground-truth preference and
// checklist.
type Judge struct {
	gen *prompt.Generator
}

func NewJudge(g llm.Generator, evaluatorModel string) (*Judge, error) {
	tmpl, err := prompt.Load(prompts.FS, "evaluation/response_judger.yaml")
	if err != nil {
		return nil, err
	}
	return &Judge{
		gen: prompt.NewGenerator(g, evaluatorModel, tmpl, llm.Options{Temperature: 0, MaxTokens: 8192}),
	}, nil
}

// Judge returns the full analysis text and the raw score string extracted
// from it.
func (j *Judge) Judge(ctx context.Context, userRequest, aiResponse, preference string, checklist []string) (analysis, score string, err error) {
	var bullets []string
	for _, item := range checklist {
		bullets = append(bullets, "- "+item)
	}

	out, err := j.gen.Call(ctx, map[string]any{
		"user_request": userRequest,
		"ai_response":  aiResponse,
		"preference":   preference,
		"checklist":    strings.Join(bullets, "\n"),
	})
	if err != nil {
		return "", "", err
	}

	sections, err := judgeParser.Parse(out)
	if err != nil {
		return "", "", err
	}
	return out, sections[scoreHeader], nil
}
