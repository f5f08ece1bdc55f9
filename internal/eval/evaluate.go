package eval

import (
	"context"
	"log/slog"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/store"
	"github.com/kairos-eval/prefbench/internal/synthesis"
)

// Config carries the knobs of one evaluation run.
type Config struct {
	Model      string // candidate under evaluation
	Evaluator  string // model driving matching and judging
	UseMatcher bool   // route matching to the fine-tuned matcher model
	ResultsDir string
	Task       Task
}

// Evaluator runs single instances through the staged pipeline. Every stage
// persists its output before the next one starts, so interrupted runs resume
// at the first stage whose result is missing.
type Evaluator struct {
	cfg        Config
	inferrer   *Inferrer
	matcher    *Matcher
	generator  *ResponseGenerator
	judge      *Judge
	decomposer *synthesis.Decomposer
}

func NewEvaluator(gen llm.Generator, cfg Config) (*Evaluator, error) {
	decomposer, err := synthesis.NewDecomposer(gen, cfg.Evaluator)
	if err != nil {
		return nil, err
	}
	inferrer, err := NewInferrer(gen, cfg.Model, decomposer)
	if err != nil {
		return nil, err
	}
	matcherModel := cfg.Evaluator
	if cfg.UseMatcher {
		matcherModel = llm.PrefMatcherModel
	}
	matcher, err := NewMatcher(gen, matcherModel)
	if err != nil {
		return nil, err
	}
	generator, err := NewResponseGenerator(gen, cfg.Model)
	if err != nil {
		return nil, err
	}
	judge, err := NewJudge(gen, cfg.Evaluator)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		cfg:        cfg,
		inferrer:   inferrer,
		matcher:    matcher,
		generator:  generator,
		judge:      judge,
		decomposer: decomposer,
	}, nil
}

// notCovered synthesizes an all-zero match for one checklist side without
// calling the matcher.
func notCovered(checklist []string) []MatchEntry {
	entries := []MatchEntry{}
	for _, entry := range checklist {
		entries = append(entries, MatchEntry{Entry: entry, Label: "Not Covered"})
	}
	return entries
}

// Evaluate runs the stages selected by the configured task for one instance.
// A stage failure logs and abandons the instance; a rerun retries from that
// stage. Context-length overflows are not failures: they record a sentinel
// and score zero.
func (e *Evaluator) Evaluate(ctx context.Context, instanceName string, instance synthesis.Instance) error {
	log := slog.With("model", e.cfg.Model, "instance", instanceName)
	path := store.ResultPath(e.cfg.ResultsDir, e.cfg.Model, instanceName)

	var result Result
	if _, err := store.Load(path, &result); err != nil {
		return err
	}

	if e.cfg.Task.includesInference() {
		if result.Inference.Inferred == nil {
			log.Info("inferring preference")
			preference, checklist, err := e.inferrer.Infer(ctx, instance.CurrentRequest, instance.PriorInteractions)
			if err != nil {
				if !llm.IsContextLength(err) {
					log.Error("inference failed", "error", err)
					return nil
				}
				log.Warn("context length exceeded during inference")
				preference, checklist = ContextLengthSentinel, []string{}
			}
			result.Inference = InferenceResult{
				Inferred: &PreferenceChecklist{Preference: preference, Checklist: checklist},
				Groundtruth: &PreferenceChecklist{
					Preference: instance.CurrentContextualPreference,
					Checklist:  instance.CurrentChecklist,
				},
			}
			if err := store.Save(path, result); err != nil {
				return err
			}
		}

		if result.Inference.Match == nil {
			log.Info("matching inferred preference")
			inferred, groundtruth := result.Inference.Inferred, result.Inference.Groundtruth
			if len(inferred.Checklist) > 0 {
				inferToGT, err := e.matcher.Match(ctx, inferred.Checklist, groundtruth.Preference)
				var gtToInfer []MatchEntry
				if err == nil {
					gtToInfer, err = e.matcher.Match(ctx, groundtruth.Checklist, inferred.Preference)
				}
				if err != nil {
					log.Error("matching failed", "error", err)
					result.Inference.Match = &Match{InferToGT: []MatchEntry{}, GTToInfer: []MatchEntry{}}
				} else {
					result.Inference.Match = &Match{InferToGT: inferToGT, GTToInfer: gtToInfer}
				}
			} else {
				// Nothing was inferred: every ground-truth item counts as
				// uncovered, no matcher calls needed.
				result.Inference.Match = &Match{
					InferToGT: notCovered(inferred.Checklist),
					GTToInfer: notCovered(groundtruth.Checklist),
				}
			}
			if err := store.Save(path, result); err != nil {
				return err
			}
		}
	}

	if e.cfg.Task.includesGeneration() {
		if result.Generation.AIResponse == nil {
			log.Info("generating response")
			response, err := e.generator.Generate(ctx, instance.CurrentRequest, instance.PriorInteractions)
			if err != nil {
				if !llm.IsContextLength(err) {
					log.Error("generation failed", "error", err)
					return nil
				}
				log.Warn("context length exceeded during generation")
				response = ContextLengthSentinel
			}
			result.Generation.UserRequest = instance.CurrentRequest
			result.Generation.AIResponse = &response
			if err := store.Save(path, result); err != nil {
				return err
			}
		}

		if result.Generation.Alignment == nil {
			log.Info("judging response")
			if *result.Generation.AIResponse != ContextLengthSentinel {
				analysis, score, err := e.judge.Judge(ctx,
					result.Generation.UserRequest,
					*result.Generation.AIResponse,
					instance.CurrentContextualPreference,
					instance.CurrentChecklist,
				)
				if err != nil {
					log.Error("judging failed", "error", err)
					result.Generation.Alignment = &Alignment{Score: 0, Analysis: err.Error()}
				} else {
					result.Generation.Alignment = &Alignment{Score: score, Analysis: analysis}
				}
			} else {
				result.Generation.Alignment = &Alignment{Score: 0, Analysis: "Context length exceeded"}
			}
			if err := store.Save(path, result); err != nil {
				return err
			}
		}
	}

	return nil
}
