package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRecords_JSONL(t *testing.T) {
	path := writeJSONL(t,
		`{"input persona": "A historian of early cartography"}`,
		``,
		`{"input persona": "A session guitarist and producer"}`,
	)

	recs, err := LoadRecords(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "A historian of early cartography", recs[0].InputPersona)
}

func TestLoadRecords_UnsupportedFormat(t *testing.T) {
	_, err := LoadRecords("seeds.parquet")
	require.Error(t, err)
}

func TestSampler_OnePerToken(t *testing.T) {
	recs := []Record{
		{InputPersona: "A historian of maps"},
		{InputPersona: "Another historian of trade routes"},
		{InputPersona: "A jazz guitarist"},
		{InputPersona: "A marine biologist"},
	}
	s := NewSampler(recs, 42)

	used := map[string]bool{}
	got, err := s.Sample(3, used)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// No duplicates, and everything drawn is marked used.
	seen := map[string]bool{}
	for _, r := range got {
		require.False(t, seen[r.InputPersona])
		seen[r.InputPersona] = true
		require.True(t, used[r.InputPersona])
	}
}

func TestSampler_SkipsUsedAndExhausts(t *testing.T) {
	recs := []Record{
		{InputPersona: "A historian of maps"},
		{InputPersona: "A jazz guitarist"},
	}
	s := NewSampler(recs, 7)

	used := map[string]bool{"A historian of maps": true}
	got, err := s.Sample(1, used)
	require.NoError(t, err)
	require.Equal(t, "A jazz guitarist", got[0].InputPersona)

	// Corpus drained: asking for more errors instead of looping forever.
	_, err = s.Sample(1, used)
	require.Error(t, err)
}

func TestSampler_Deterministic(t *testing.T) {
	recs := []Record{
		{InputPersona: "A historian of maps"},
		{InputPersona: "A jazz guitarist"},
		{InputPersona: "A marine biologist"},
		{InputPersona: "A tax lawyer"},
	}

	a, err := NewSampler(recs, 42).Sample(2, map[string]bool{})
	require.NoError(t, err)
	b, err := NewSampler(recs, 42).Sample(2, map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, a, b)
}
