package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kairos-eval/prefbench/internal/eval"
	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/pool"
	"github.com/kairos-eval/prefbench/internal/store"
)

var (
	evalResultsDir    string
	evalModel         string
	evalDataDir       string
	evalBenchmarkFile string
	evalEvaluator     string
	evalUseMatcher    bool
	evalNWorkers      int
	evalTask          string
)

func newEvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a candidate model on benchmark instances",
		Long: `Evaluate runs a candidate model through the staged evaluation pipeline:
infer the active preference from the interaction history, match it against
the ground truth, generate a response to the held-out request, and judge its
alignment.

Instances come either from a local instance directory (--data_dir) or from a
JSONL export of the published benchmark (--benchmark_file). Per-instance
results are persisted as they complete; reruns resume at the first missing
stage.`,
		RunE: evaluateCommandE,
	}

	cmd.Flags().StringVar(&evalResultsDir, "results_dir", "", "Directory to store evaluation results")
	cmd.Flags().StringVar(&evalModel, "model", "", "Model to be evaluated")
	cmd.Flags().StringVar(&evalDataDir, "data_dir", "", "Directory containing locally synthesized instances")
	cmd.Flags().StringVar(&evalBenchmarkFile, "benchmark_file", "", "JSONL export of the published benchmark dataset")
	cmd.Flags().StringVar(&evalEvaluator, "evaluator", "gpt-4o-2024-11-20", "Model used for evaluation functions")
	cmd.Flags().BoolVar(&evalUseMatcher, "use_matcher", false, "Use the fine-tuned preference matcher model")
	cmd.Flags().IntVar(&evalNWorkers, "n_workers", 1, "Number of parallel workers")
	cmd.Flags().StringVar(&evalTask, "task", "inference", "Which evaluation stages to run: inference, generation, or both")

	_ = cmd.MarkFlagRequired("results_dir")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func evaluateCommandE(cmd *cobra.Command, args []string) error {
	task := eval.Task(evalTask)
	if !task.Valid() {
		return fmt.Errorf("invalid task %q: must be inference, generation, or both", evalTask)
	}

	registry := llm.NewRegistry(llm.ConfigFromEnv())

	var instances []eval.NamedInstance
	var err error
	switch {
	case evalDataDir != "":
		instances, err = eval.LoadInstances(evalDataDir)
	case evalBenchmarkFile != "":
		instances, err = eval.LoadBenchmark(evalBenchmarkFile)
	default:
		return fmt.Errorf("either --data_dir or --benchmark_file is required")
	}
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		return fmt.Errorf("no usable instances found")
	}

	slog.Info("starting evaluation pipeline",
		"results_dir", evalResultsDir,
		"model", evalModel,
		"evaluator", evalEvaluator,
		"use_matcher", evalUseMatcher,
		"instances", len(instances),
		"workers", evalNWorkers,
		"task", task,
	)

	cfg := eval.Config{
		Model:      evalModel,
		Evaluator:  evalEvaluator,
		UseMatcher: evalUseMatcher,
		ResultsDir: evalResultsDir,
		Task:       task,
	}

	// Each worker builds its own evaluator: the decomposer cache is not
	// shared across goroutines.
	errs := pool.Map(cmd.Context(), evalNWorkers, instances, func(ctx context.Context, ni eval.NamedInstance) error {
		e, err := eval.NewEvaluator(registry, cfg)
		if err != nil {
			return err
		}
		return e.Evaluate(ctx, ni.Name, ni.Instance)
	})
	if first, failed := pool.FirstError(errs); first != nil {
		return &PipelineFailureError{Message: fmt.Sprintf("%d of %d instances failed, first error: %v", failed, len(instances), first)}
	}

	agg, err := eval.AggregateResults(evalResultsDir, evalModel, task)
	if err != nil {
		return fmt.Errorf("aggregating results: %w", err)
	}
	aggPath := store.AggregatePath(evalResultsDir, evalModel)
	if err := store.Save(aggPath, agg); err != nil {
		return fmt.Errorf("saving aggregate results: %w", err)
	}
	slog.Info("results saved", "path", aggPath)

	if agg.Inference != nil {
		fmt.Printf("Inference Results:\n")
		fmt.Printf("  Precision: %.2f%%\n", agg.Inference.Precision*100)
		fmt.Printf("  Recall: %.2f%%\n", agg.Inference.Recall*100)
		fmt.Printf("  F1: %.2f%%\n", agg.Inference.F1*100)
	}
	if agg.Generation != nil {
		fmt.Printf("Generation Results:\n")
		fmt.Printf("  Average Score: %.2f / 10\n", agg.Generation.AverageScore)
	}
	return nil
}
