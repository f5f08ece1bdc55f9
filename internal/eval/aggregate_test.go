package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kairos-eval/prefbench/internal/store"
)

func TestNormalizeScore(t *testing.T) {
	cases := []struct {
		raw  any
		want float64
	}{
		{"8", 8},
		{"7/10", 7},
		{"8.5\n\nThe response covers most items.", 8},
		{"**9**", 9},
		{" 6 ", 6},
		{"excellent", 0},
		{float64(9), 9},
		{0, 0},
		{nil, 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizeScore(tc.raw), "raw %#v", tc.raw)
	}
}

func TestLabelScore(t *testing.T) {
	require.Equal(t, 1.0, labelScore("Fully Covered"))
	require.Equal(t, 0.5, labelScore("Partially Covered"))
	require.Equal(t, 0.0, labelScore("Not Covered"))
	require.Equal(t, 0.0, labelScore("Unknown"))
}

func saveResult(t *testing.T, resultsDir, model, name string, result Result) {
	t.Helper()
	require.NoError(t, store.Save(store.ResultPath(resultsDir, model, name), result))
}

func inferenceResult(gtLabels, inferLabels []string) InferenceResult {
	match := &Match{}
	inferred := &PreferenceChecklist{Preference: "p"}
	groundtruth := &PreferenceChecklist{Preference: "g"}
	for i, label := range inferLabels {
		inferred.Checklist = append(inferred.Checklist, "inferred item")
		match.InferToGT = append(match.InferToGT, MatchEntry{Index: i + 1, Entry: "inferred item", Label: label})
	}
	for i, label := range gtLabels {
		groundtruth.Checklist = append(groundtruth.Checklist, "true item")
		match.GTToInfer = append(match.GTToInfer, MatchEntry{Index: i + 1, Entry: "true item", Label: label})
	}
	return InferenceResult{Inferred: inferred, Groundtruth: groundtruth, Match: match}
}

func TestAggregateResults(t *testing.T) {
	dir := t.TempDir()
	model := "candidate"

	r1 := Result{Inference: inferenceResult(
		[]string{"Fully Covered", "Not Covered"},
		[]string{"Partially Covered", "Partially Covered"},
	)}
	r1.Generation.Alignment = &Alignment{Score: "7/10", Analysis: "a"}
	saveResult(t, dir, model, "0+a+consistent", r1)

	r2 := Result{Inference: inferenceResult(
		[]string{"Fully Covered", "Not Covered"},
		[]string{"Fully Covered", "Not Covered"},
	)}
	r2.Generation.Alignment = &Alignment{Score: "**9**", Analysis: "b"}
	saveResult(t, dir, model, "0+a+contrastive", r2)

	// An existing summary file must not be counted as an instance.
	require.NoError(t, store.Save(store.AggregatePath(dir, model), Aggregate{}))

	agg, err := AggregateResults(dir, model, TaskBoth)
	require.NoError(t, err)

	require.Equal(t, 4, agg.Inference.NTrue)
	require.Equal(t, 4, agg.Inference.NPredicted)
	require.Equal(t, 2.0, agg.Inference.NTrueMatched)
	require.Equal(t, 2.0, agg.Inference.NPredictedMatched)
	require.Equal(t, 0.5, agg.Inference.Precision)
	require.Equal(t, 0.5, agg.Inference.Recall)
	require.Equal(t, 0.5, agg.Inference.F1)

	require.Equal(t, 2, agg.Generation.NInstances)
	require.Equal(t, 8.0, agg.Generation.AverageScore)
}

func TestAggregateResultsTaskScoping(t *testing.T) {
	dir := t.TempDir()
	model := "candidate"

	r := Result{Inference: inferenceResult([]string{"Fully Covered"}, []string{"Fully Covered"})}
	r.Generation.Alignment = &Alignment{Score: "5", Analysis: "ok"}
	saveResult(t, dir, model, "0+a+changing", r)

	inf, err := AggregateResults(dir, model, TaskInference)
	require.NoError(t, err)
	require.NotNil(t, inf.Inference)
	require.Nil(t, inf.Generation)

	gen, err := AggregateResults(dir, model, TaskGeneration)
	require.NoError(t, err)
	require.Nil(t, gen.Inference)
	require.Equal(t, 5.0, gen.Generation.AverageScore)
}

func TestAggregateResultsZeroDenominators(t *testing.T) {
	dir := t.TempDir()
	model := "candidate"

	// A context-length instance: nothing inferred, nothing matched.
	r := Result{Inference: InferenceResult{
		Inferred:    &PreferenceChecklist{Preference: ContextLengthSentinel, Checklist: []string{}},
		Groundtruth: &PreferenceChecklist{Preference: "g", Checklist: []string{"item"}},
		Match:       &Match{InferToGT: []MatchEntry{}, GTToInfer: []MatchEntry{{Entry: "item", Label: "Not Covered"}}},
	}}
	saveResult(t, dir, model, "0+a+consistent", r)

	agg, err := AggregateResults(dir, model, TaskInference)
	require.NoError(t, err)
	require.Zero(t, agg.Inference.Precision)
	require.Zero(t, agg.Inference.Recall)
	require.Zero(t, agg.Inference.F1)
}
