package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/pavelanni/quizboard/internal/model"
)

func TestLanguageName(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"en", "English"},
		{"pt-BR", "Brazilian Portuguese"},
		{"not a tag!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			if got := languageName(tt.lang); got != tt.want {
				t.Errorf("languageName(%q) = %q, want %q", tt.lang, got, tt.want)
			}
		})
	}
}

func TestDataPath(t *testing.T) {
	v := viper.New()
	v.Set("data-dir", "/srv/quiz")
	if got := dataPath(v, "results", "resultados.json"); got != filepath.Join("/srv/quiz", "resultados.json") {
		t.Errorf("default dataPath = %q", got)
	}
	v.Set("results", "/tmp/r.json")
	if got := dataPath(v, "results", "resultados.json"); got != "/tmp/r.json" {
		t.Errorf("explicit dataPath = %q", got)
	}
}

func TestOpenSessionStoreRejectsUnknownBackend(t *testing.T) {
	v := viper.New()
	v.Set("session-backend", "memcached")
	if _, err := openSessionStore(context.Background(), v); err == nil {
		t.Error("expected error for unknown backend")
	}

	v.Set("session-backend", "memory")
	s, err := openSessionStore(context.Background(), v)
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	s.Close()
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "resultados.json")
	content := `[{"id":"a","name":"Ana","totalQuestions":2,"answers":[],"wrongAnswers":[],
		"timestamp":"2026-01-02T10:00:00Z","perSubjectCorrect":{"Math":2},"score":2,"status":"finished"}]`
	if err := os.WriteFile(results, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "export.json")

	cmd := rootCmd()
	cmd.SetArgs([]string{"export", "--results", results, "--output", out, "--log-level", "error"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var got model.AttemptsExport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if got.Count != 1 || got.Finished != 1 || got.Subjects["Math"].Correct != 2 {
		t.Errorf("export = %+v", got)
	}
}
