package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost"},
		"ai": {"provider": "openai"}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "local", cfg.FileStore.Type)
	require.Equal(t, "memory", cfg.Queue.Type)
	require.Equal(t, 1000, cfg.Ingest.ChunkSize)
	require.Equal(t, 8000, cfg.Ingest.ExtractWindow)
	require.Equal(t, 3, cfg.Retrieval.KeywordLimit)
	require.Equal(t, 2, cfg.Retrieval.ChunksPerEntity)
	require.Equal(t, 5, cfg.Retrieval.FallbackLimit)
	require.False(t, cfg.Retrieval.EnableVector)
	require.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoadRequiresPort(t *testing.T) {
	path := writeConfig(t, `{"database": {"host": "localhost"}, "ai": {"provider": "openai"}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresDatabase(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "ai": {"provider": "openai"}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresAIProvider(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "database": {"host": "localhost"}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadOverlap(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost"},
		"ai": {"provider": "openai"},
		"ingest": {"chunk_size": 100, "chunk_overlap": 100}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
