package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/persona"
	"github.com/kairos-eval/prefbench/internal/pool"
	"github.com/kairos-eval/prefbench/internal/synthesis"
)

var (
	synthOutputDir     string
	synthModel         string
	synthResponseModel string
	synthSeedCorpus    string
	synthNPersonas     int
	synthNFactors      int
	synthNSessions     int
	synthMaxTurns      int
	synthNWorkers      int
)

func newSynthesizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Synthesize personas, sessions, dialogues and evaluation instances",
		Long: `Synthesize runs the full data pipeline: sample and describe personas,
generate context factors and a session series per persona, simulate the
dialogues, and derive the consistent/contrastive/changing evaluation
instances.

Every phase persists its output, so an interrupted run resumes where it
stopped.`,
		RunE: synthesizeCommandE,
	}

	cmd.Flags().StringVar(&synthOutputDir, "output_dir", "", "Output directory for the synthesized data")
	cmd.Flags().StringVar(&synthModel, "model", "claude-3-5-sonnet-20241022", "Model to use for the synthesis")
	cmd.Flags().StringVar(&synthResponseModel, "response_model", synthesis.DefaultResponseModel, "Model answering as the assistant in simulated dialogues")
	cmd.Flags().StringVar(&synthSeedCorpus, "seed_corpus", "", "Persona seed corpus (.jsonl or .csv)")
	cmd.Flags().IntVar(&synthNPersonas, "n_personas", 4, "Number of personas to generate")
	cmd.Flags().IntVar(&synthNFactors, "n_factors", 8, "Number of context factors per persona")
	cmd.Flags().IntVar(&synthNSessions, "n_sessions", 13, "Number of sessions per persona")
	cmd.Flags().IntVar(&synthMaxTurns, "max_turns", 16, "Maximum number of turns per interaction")
	cmd.Flags().IntVar(&synthNWorkers, "n_workers", 1, "Number of parallel workers")

	_ = cmd.MarkFlagRequired("output_dir")

	return cmd
}

func synthesizeCommandE(cmd *cobra.Command, args []string) error {
	registry := llm.NewRegistry(llm.ConfigFromEnv())

	slog.Info("starting synthesis pipeline",
		"output_dir", synthOutputDir,
		"model", synthModel,
		"personas", synthNPersonas,
		"factors", synthNFactors,
		"sessions", synthNSessions,
		"max_turns", synthMaxTurns,
		"workers", synthNWorkers,
	)

	personas, err := persona.Ensure(cmd.Context(), registry, synthModel, synthNPersonas, synthOutputDir, synthSeedCorpus)
	if err != nil {
		return fmt.Errorf("generating personas: %w", err)
	}

	cfg := synthesis.Config{
		Model:         synthModel,
		ResponseModel: synthResponseModel,
		NFactors:      synthNFactors,
		NSessions:     synthNSessions,
		MaxTurns:      synthMaxTurns,
		OutputDir:     synthOutputDir,
	}

	// Each worker gets its own synthesizer: the decomposer cache and series
	// sampling are persona-local state.
	errs := pool.Map(cmd.Context(), synthNWorkers, personas, func(ctx context.Context, p persona.Persona) error {
		s, err := synthesis.NewSynthesizer(registry, cfg, rand.New(rand.NewSource(rand.Int63())))
		if err != nil {
			return err
		}
		return s.Run(ctx, p)
	})

	if err := synthesis.CreateInstances(synthOutputDir, rand.New(rand.NewSource(rand.Int63()))); err != nil {
		return fmt.Errorf("creating instances: %w", err)
	}

	if first, failed := pool.FirstError(errs); first != nil {
		return &PipelineFailureError{Message: fmt.Sprintf("%d of %d personas failed, first error: %v", failed, len(personas), first)}
	}
	slog.Info("synthesis pipeline completed")
	return nil
}
