// Package views renders the HTML pages as templ components. The _templ.go
// files are generated from the .templ sources with `templ generate`.
package views

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/quizboard/internal/i18n"
	"github.com/pavelanni/quizboard/internal/model"
	"github.com/pavelanni/quizboard/internal/scoring"
)

// questionTemplate pre-fills the admin form with the expected shape.
const questionTemplate = `[{"text": "", "options": ["", ""], "correct": 0, "subject": ""}]`

var navItems = []struct{ path, label string }{
	{"/", "NavHome"},
	{"/historico", "NavHistory"},
	{"/placar", "NavScoreboard"},
	{"/adicionar", "NavAdmin"},
}

var difficulties = []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}

func basePath(ctx context.Context) string {
	return model.BasePathFromContext(ctx)
}

// link prefixes an application path with the deployment base path.
func link(ctx context.Context, path string) templ.SafeURL {
	return templ.SafeURL(basePath(ctx) + path)
}

func optionID(questionID int64, option int) string {
	return fmt.Sprintf("%d-%d", questionID, option)
}

// FormatDate renders a timestamp as dd/mm/yyyy hh:mm in local time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02/01/2006 15:04")
}

// ScoreClass maps a score to a Bootstrap contextual class.
func ScoreClass(score, total int) string {
	return scoring.Grade(score, total)
}

func scoreSummary(a model.Attempt) string {
	return fmt.Sprintf("%d/%d (%d%%)", a.Score, a.TotalQuestions, scoring.Percentage(a.Score, a.TotalQuestions))
}

func scoreLine(ctx context.Context, a model.Attempt) string {
	return appI18n.Td(ctx, "ScoreLine", map[string]any{
		"Score":   a.Score,
		"Total":   a.TotalQuestions,
		"Percent": scoring.Percentage(a.Score, a.TotalQuestions),
	})
}

func statusLabel(ctx context.Context, s model.AttemptStatus) string {
	switch s {
	case model.StatusStarted:
		return appI18n.T(ctx, "StatusStarted")
	case model.StatusPartial:
		return appI18n.T(ctx, "StatusPartial")
	case model.StatusFinished:
		return appI18n.T(ctx, "StatusFinished")
	}
	return string(s)
}

// RankedAttempt is an attempt with its storage position.
type RankedAttempt struct {
	model.Attempt
	Position int
}

// Rank orders attempts by percentage, then score, then earliest timestamp.
func Rank(attempts []model.Attempt) []RankedAttempt {
	out := inStorageOrder(attempts)
	sort.SliceStable(out, func(i, j int) bool {
		pi := scoring.Percentage(out[i].Score, out[i].TotalQuestions)
		pj := scoring.Percentage(out[j].Score, out[j].TotalQuestions)
		if pi != pj {
			return pi > pj
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func inStorageOrder(attempts []model.Attempt) []RankedAttempt {
	out := make([]RankedAttempt, len(attempts))
	for i, a := range attempts {
		out[i] = RankedAttempt{Attempt: a, Position: i}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
