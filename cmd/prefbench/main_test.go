package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandStructure(t *testing.T) {
	cmd := newRootCommand()
	require.Equal(t, "prefbench", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	require.Contains(t, names, "synthesize")
	require.Contains(t, names, "evaluate")
}

func TestSynthesizeFlagDefaults(t *testing.T) {
	cmd := newSynthesizeCommand()

	require.Equal(t, "claude-3-5-sonnet-20241022", cmd.Flags().Lookup("model").DefValue)
	require.Equal(t, "4", cmd.Flags().Lookup("n_personas").DefValue)
	require.Equal(t, "8", cmd.Flags().Lookup("n_factors").DefValue)
	require.Equal(t, "13", cmd.Flags().Lookup("n_sessions").DefValue)
	require.Equal(t, "16", cmd.Flags().Lookup("max_turns").DefValue)
	require.Equal(t, "1", cmd.Flags().Lookup("n_workers").DefValue)
}

func TestEvaluateFlagDefaults(t *testing.T) {
	cmd := newEvaluateCommand()

	require.Equal(t, "gpt-4o-2024-11-20", cmd.Flags().Lookup("evaluator").DefValue)
	require.Equal(t, "inference", cmd.Flags().Lookup("task").DefValue)
	require.Equal(t, "false", cmd.Flags().Lookup("use_matcher").DefValue)
}

func TestEvaluateRejectsUnknownTask(t *testing.T) {
	cmd := newEvaluateCommand()
	evalTask = "everything"
	evalResultsDir = "r"
	evalModel = "m"
	t.Cleanup(func() { evalTask = "inference" })

	err := evaluateCommandE(cmd, nil)
	require.ErrorContains(t, err, "invalid task")
}

func TestEvaluateRequiresDataSource(t *testing.T) {
	cmd := newEvaluateCommand()
	evalTask = "inference"
	evalDataDir = ""
	evalBenchmarkFile = ""
	evalResultsDir = "r"
	evalModel = "m"

	err := evaluateCommandE(cmd, nil)
	require.ErrorContains(t, err, "--data_dir or --benchmark_file")
}
