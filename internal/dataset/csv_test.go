package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "input_persona,source\nA historian of maps,web\nA jazz guitarist,web\n")

	rows, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "A historian of maps", rows[0]["input_persona"])
	require.Equal(t, "web", rows[1]["source"])
}

func TestLoadCSV_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := LoadCSV(writeCSV(t, ""))
		require.Error(t, err)
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := LoadCSV(writeCSV(t, "a,b\nonly-one\n"))
		require.Error(t, err)
	})
}
