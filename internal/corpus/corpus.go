// Package corpus loads and samples the external persona seed corpus:
// free-text "input persona" records grouped by occupation tokens.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/kairos-eval/prefbench/internal/dataset"
)

// Record is one seed persona from the corpus.
type Record struct {
	InputPersona string `json:"input persona"`
}

// OccupationTokens is the fixed vocabulary used to group seed records so
// that sampling spreads across occupations.
var OccupationTokens = []string{
	"historian", "teacher", "analyst", "journalist", "engineer", "enthusiast",
	"scientist", "researcher", "designer", "genealogist", "player", "scholar",
	"student", "producer", "writer", "planner", "critic", "blogger", "manager",
	"professor", "developer", "specialist", "psychologist", "sociologist",
	"geographer", "artist", "director", "biologist", "consultant", "curator",
	"architect", "cartographer", "linguist", "anthropologist", "screenwriter",
	"agent", "athletic", "collector", "author", "organizer", "entomologist",
	"geologist", "horticulturist", "listener", "officer", "educator",
	"botanist", "consumer", "musician", "administrator", "lawyer",
	"statistician", "librarian", "coordinator", "instructor", "archaeologist",
	"editor", "member", "filmmaker", "worker", "counselor", "trainer",
	"activist", "paleontologist", "strategist", "photographer", "ethnic",
	"composer", "investor", "politician", "demographer", "chemist",
	"mathematician", "archivist", "physicist", "singer", "novelist",
	"economist", "communicator", "passenger", "musicologist", "viewer",
	"preservationist", "nutritionist", "reviewer", "astronomer", "actor",
	"tourist", "traveler", "commuter", "driver", "customer", "neuroscientist",
	"gardener", "scriptwriter", "diplomatic", "conservationist", "farmer",
	"practitioner", "biochemist", "theologian", "programmer", "therapist",
	"advisor", "environmentalist", "meteorologist", "songwriter", "conductor",
	"gamer", "choreographer", "guitarist", "humanitarian", "ornithologist",
	"commentator",
}

// LoadRecords reads the seed corpus from a .jsonl file (one JSON object per
// line) or a .csv file with an "input_persona" column.
func LoadRecords(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return loadJSONL(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("corpus: unsupported format %q (want .jsonl or .csv)", path)
	}
}

func loadJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("corpus: %s line %d: %w", path, line, err)
		}
		if rec.InputPersona != "" {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: scan %s: %w", path, err)
	}
	return records, nil
}

func loadCSV(path string) ([]Record, error) {
	rows, err := dataset.LoadCSV(path)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if p := row["input_persona"]; p != "" {
			records = append(records, Record{InputPersona: p})
		}
	}
	return records, nil
}

// Sampler draws seed records one per occupation token, skipping records the
// caller has already consumed.
type Sampler struct {
	records []Record
	rng     *rand.Rand
}

// NewSampler creates a Sampler with a fixed seed for reproducible draws.
func NewSampler(records []Record, seed int64) *Sampler {
	return &Sampler{records: records, rng: rand.New(rand.NewSource(seed))}
}

// groupByToken buckets unused records under each occupation token whose word
// appears in the record text.
func (s *Sampler) groupByToken(used map[string]bool) map[string][]Record {
	buckets := make(map[string][]Record, len(OccupationTokens))
	for _, rec := range s.records {
		if used[rec.InputPersona] {
			continue
		}
		for _, token := range OccupationTokens {
			if strings.Contains(rec.InputPersona, token) {
				buckets[token] = append(buckets[token], rec)
			}
		}
	}
	return buckets
}

// Sample draws up to n distinct records, at most one per occupation token in
// a single pass, retrying over the remaining tokens until n are collected or
// the corpus is exhausted.
func (s *Sampler) Sample(n int, used map[string]bool) ([]Record, error) {
	if used == nil {
		used = map[string]bool{}
	}

	var out []Record
	for len(out) < n {
		buckets := s.groupByToken(used)

		available := make([]string, 0, len(buckets))
		for _, token := range OccupationTokens {
			if len(buckets[token]) > 0 {
				available = append(available, token)
			}
		}
		if len(available) == 0 {
			return out, fmt.Errorf("corpus: exhausted after %d of %d records", len(out), n)
		}

		s.rng.Shuffle(len(available), func(i, j int) {
			available[i], available[j] = available[j], available[i]
		})
		want := min(n-len(out), len(available))
		for _, token := range available[:want] {
			entries := buckets[token]
			rec := entries[s.rng.Intn(len(entries))]
			if used[rec.InputPersona] {
				continue
			}
			used[rec.InputPersona] = true
			out = append(out, rec)
		}
	}
	return out, nil
}
