package eval

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kairos-eval/prefbench/internal/store"
)

func labelScore(label string) float64 {
	switch label {
	case "Fully Covered":
		return 1
	case "Partially Covered":
		return 0.5
	default:
		return 0
	}
}

// NormalizeScore turns a judge's raw score into a number. Judges write
// scores as "8", "7/10", "8.5", "**9**" or a number followed by commentary;
// anything unparseable counts as zero.
func NormalizeScore(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		if i := strings.Index(s, "/"); i >= 0 {
			s = s[:i]
		}
		if i := strings.Index(s, "."); i >= 0 {
			s = s[:i]
		}
		if i := strings.Index(s, "\n\n"); i >= 0 {
			s = s[:i]
		}
		s = strings.ReplaceAll(s, "**", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			slog.Error("unparseable generation score", "score", v)
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// InferenceAggregate is the micro-averaged inference summary: matched counts
// are summed over all instances before computing precision, recall and F1.
type InferenceAggregate struct {
	Precision         float64 `json:"precision"`
	Recall            float64 `json:"recall"`
	F1                float64 `json:"f1"`
	NTrueMatched      float64 `json:"n_true_matched"`
	NPredictedMatched float64 `json:"n_predicted_matched"`
	NTrue             int     `json:"n_true"`
	NPredicted        int     `json:"n_predicted"`
}

// GenerationAggregate averages normalized judge scores over instances.
type GenerationAggregate struct {
	AverageScore float64 `json:"average_score"`
	NInstances   int     `json:"n_instances"`
}

// Aggregate is the persisted results.json summary for one model.
type Aggregate struct {
	Inference  *InferenceAggregate  `json:"inference,omitempty"`
	Generation *GenerationAggregate `json:"generation,omitempty"`
}

func calculatePRF(agg *InferenceAggregate) {
	if agg.NPredicted > 0 {
		agg.Precision = agg.NPredictedMatched / float64(agg.NPredicted)
	}
	if agg.NTrue > 0 {
		agg.Recall = agg.NTrueMatched / float64(agg.NTrue)
	}
	if agg.Precision+agg.Recall > 0 {
		agg.F1 = 2 * agg.Precision * agg.Recall / (agg.Precision + agg.Recall)
	}
}

// AggregateResults reads every per-instance result file for the model and
// computes the task's summary metrics. Unreadable result files are logged
// and skipped.
func AggregateResults(resultsDir, model string, task Task) (Aggregate, error) {
	modelDir := filepath.Join(resultsDir, model)
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return Aggregate{}, fmt.Errorf("reading results directory: %w", err)
	}

	agg := Aggregate{}
	if task.includesInference() {
		agg.Inference = &InferenceAggregate{}
	}
	if task.includesGeneration() {
		agg.Generation = &GenerationAggregate{}
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "results.json" || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var result Result
		if ok, err := store.Load(filepath.Join(modelDir, entry.Name()), &result); err != nil || !ok {
			slog.Error("skipping unreadable result file", "file", entry.Name(), "error", err)
			continue
		}

		if task.includesInference() {
			inf := result.Inference
			if inf.Inferred == nil || inf.Groundtruth == nil || inf.Match == nil {
				return Aggregate{}, fmt.Errorf("incomplete inference result in %s", entry.Name())
			}
			agg.Inference.NTrue += len(inf.Groundtruth.Checklist)
			agg.Inference.NPredicted += len(inf.Inferred.Checklist)
			for _, m := range inf.Match.GTToInfer {
				agg.Inference.NTrueMatched += labelScore(m.Label)
			}
			for _, m := range inf.Match.InferToGT {
				agg.Inference.NPredictedMatched += labelScore(m.Label)
			}
		}

		if task.includesGeneration() {
			if result.Generation.Alignment == nil {
				return Aggregate{}, fmt.Errorf("incomplete generation result in %s", entry.Name())
			}
			agg.Generation.NInstances++
			agg.Generation.AverageScore += NormalizeScore(result.Generation.Alignment.Score)
		}
	}

	if agg.Inference != nil {
		calculatePRF(agg.Inference)
	}
	if agg.Generation != nil && agg.Generation.NInstances > 0 {
		agg.Generation.AverageScore /= float64(agg.Generation.NInstances)
	}
	return agg, nil
}
