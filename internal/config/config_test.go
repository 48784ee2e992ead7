package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
app:
  name: studypal
logger:
  level: debug
server:
  address: ":8080"
embedding:
  provider: gemini
  dimension: 768
  gemini:
    apiKey: ${TEST_GEMINI_KEY}
    model: text-embedding-004
llm:
  provider: gemini
chunking:
  active: document
  profiles:
    document:
      chunkSize: 1000
      chunkOverlap: 200
retrieval:
  threshold: 0.65
  topK: 4
vectorStore:
  provider: memory
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret-key")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Embedding.Dimension != 768 {
		t.Errorf("dimension = %d", cfg.Embedding.Dimension)
	}
	if cfg.Embedding.Gemini.APIKey != "secret-key" {
		t.Errorf("env expansion failed, apiKey = %q", cfg.Embedding.Gemini.APIKey)
	}
	if cfg.Retrieval.Threshold != 0.65 || cfg.Retrieval.TopK != 4 {
		t.Errorf("retrieval defaults = %+v", cfg.Retrieval)
	}
	if got := cfg.ActiveChunking(); got.ChunkSize != 1000 || got.ChunkOverlap != 200 {
		t.Errorf("active profile = %+v", got)
	}
	if cfg.Server.MaxUploadBytes != 10<<20 {
		t.Errorf("upload cap should default to 10MiB, got %d", cfg.Server.MaxUploadBytes)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(s string) string
		wantErr string
	}{
		{
			name:    "zero dimension",
			mutate:  func(s string) string { return strings.Replace(s, "dimension: 768", "dimension: 0", 1) },
			wantErr: "dimension",
		},
		{
			name:    "unknown provider",
			mutate:  func(s string) string { return strings.Replace(s, "provider: gemini", "provider: acme", 1) },
			wantErr: "provider",
		},
		{
			name:    "overlap not below chunk size",
			mutate:  func(s string) string { return strings.Replace(s, "chunkOverlap: 200", "chunkOverlap: 1000", 1) },
			wantErr: "chunkOverlap",
		},
		{
			name:    "unknown active profile",
			mutate:  func(s string) string { return strings.Replace(s, "active: document", "active: missing", 1) },
			wantErr: "profile",
		},
		{
			name:    "threshold out of range",
			mutate:  func(s string) string { return strings.Replace(s, "threshold: 0.65", "threshold: 1.5", 1) },
			wantErr: "threshold",
		},
		{
			name:    "non-positive topK",
			mutate:  func(s string) string { return strings.Replace(s, "topK: 4", "topK: 0", 1) },
			wantErr: "topK",
		},
		{
			name:    "unknown store",
			mutate:  func(s string) string { return strings.Replace(s, "provider: memory", "provider: sqlite", 1) },
			wantErr: "vector store",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.mutate(validYAML)))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
