package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "StartQuiz"); got != "Start quiz" {
		t.Errorf("T(StartQuiz) = %q, want 'Start quiz'", got)
	}
	if got := T(ctx, "NavScoreboard"); got != "Scoreboard" {
		t.Errorf("T(NavScoreboard) = %q, want 'Scoreboard'", got)
	}
}

func TestTranslatePortuguese(t *testing.T) {
	ctx := initLang(t, "pt-BR")

	if got := T(ctx, "StartQuiz"); got != "Iniciar quiz" {
		t.Errorf("T(StartQuiz) = %q, want 'Iniciar quiz'", got)
	}
	if got := T(ctx, "Anonymous"); got != "Anônimo" {
		t.Errorf("T(Anonymous) = %q, want 'Anônimo'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "QuestionsAvailable", 1); got != "1 question available." {
		t.Errorf("Tp(QuestionsAvailable, 1) = %q", got)
	}
	if got := Tp(ctx, "QuestionsAvailable", 5); got != "5 questions available." {
		t.Errorf("Tp(QuestionsAvailable, 5) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ScoreLine", map[string]any{"Score": 3, "Total": 4, "Percent": 75})
	if got != "3 of 4 correct (75%)" {
		t.Errorf("Td(ScoreLine) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMatch(t *testing.T) {
	if err := Init("pt-BR"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"no preference", nil, "pt-BR"},
		{"english header", []string{"", "en-US,en;q=0.9"}, "en"},
		{"query wins", []string{"en", "pt-BR"}, "en"},
		{"unsupported falls back", []string{"ja"}, "pt-BR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.prefs...); got != tt.want {
				t.Errorf("Match(%v) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestMiddlewareNegotiates(t *testing.T) {
	if err := Init("pt-BR"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var got string
	h := Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "StartQuiz")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Start quiz" {
		t.Errorf("negotiated translation = %q, want 'Start quiz'", got)
	}

	h = Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "StartQuiz")
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Iniciar quiz" {
		t.Errorf("fixed translation = %q, want 'Iniciar quiz'", got)
	}
}
