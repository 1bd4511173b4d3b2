// Package scoring computes attempt results from submitted answers and the question bank.
package scoring

import (
	"fmt"
	"math"

	"github.com/pavelanni/quizboard/internal/model"
)

// Result holds the outcome of scoring a set of answers.
type Result struct {
	Score      int
	Total      int // questions the quiz presented
	Considered int // answers that matched a presented question
	Skipped    int // answers referencing unknown or excluded questions
	Wrong      []model.WrongAnswer
	PerSubject map[string]int
	Answers    []model.Answer // deduplicated answers
}

// Dedupe keeps the most recent answer for each question id. The surviving
// answers are ordered by their last occurrence.
func Dedupe(answers []model.Answer) []model.Answer {
	seen := make(map[int64]bool, len(answers))
	rev := make([]model.Answer, 0, len(answers))
	for i := len(answers) - 1; i >= 0; i-- {
		a := answers[i]
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		rev = append(rev, a)
	}
	out := make([]model.Answer, len(rev))
	for i, a := range rev {
		out[len(rev)-1-i] = a
	}
	return out
}

// Score grades answers against bank. When allowed is empty the ids actually
// answered are used; if no question in the bank matches, the whole bank is
// considered.
func Score(answers []model.Answer, bank []model.Question, allowed []int64) Result {
	answers = Dedupe(answers)

	if len(allowed) == 0 {
		for _, a := range answers {
			allowed = append(allowed, a.ID)
		}
	}
	allowedSet := make(map[int64]bool, len(allowed))
	for _, id := range allowed {
		allowedSet[id] = true
	}

	byID := make(map[int64]model.Question)
	for _, q := range bank {
		if allowedSet[q.ID] {
			byID[q.ID] = q
		}
	}
	if len(byID) == 0 {
		for _, q := range bank {
			byID[q.ID] = q
		}
	}

	res := Result{
		Total:      len(byID),
		Wrong:      []model.WrongAnswer{},
		PerSubject: make(map[string]int),
		Answers:    answers,
	}
	if res.Total == 0 {
		res.Total = len(answers)
	}

	totals := make(map[string]int)
	for _, a := range answers {
		q, ok := byID[a.ID]
		if !ok {
			res.Skipped++
			continue
		}
		res.Considered++
		totals[q.Subject]++

		if a.Chosen == q.Correct {
			res.Score++
			continue
		}
		res.Wrong = append(res.Wrong, model.WrongAnswer{
			ID:       q.ID,
			Question: q.Text,
			Wrong:    OptionLabel(q, a.Chosen),
			Correct:  OptionLabel(q, q.Correct),
			Subject:  q.Subject,
		})
	}

	wrongBySubject := make(map[string]int)
	for _, w := range res.Wrong {
		wrongBySubject[w.Subject]++
	}
	for subj, n := range totals {
		res.PerSubject[subj] = n - wrongBySubject[subj]
	}
	return res
}

// Apply copies the scoring outcome into an attempt.
func (r Result) Apply(a *model.Attempt) {
	a.Score = r.Score
	a.WrongAnswers = r.Wrong
	a.PerSubjectCorrect = r.PerSubject
	a.Answers = r.Answers
}

// OptionLabel returns the text of option idx, or "Option N" when idx is out of range.
func OptionLabel(q model.Question, idx int) string {
	if idx >= 0 && idx < len(q.Options) {
		return q.Options[idx]
	}
	return fmt.Sprintf("Option %d", idx)
}

// Percentage returns score as a rounded percentage of total.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Grade buckets a score for display: "success" from 80%, "warning" from 50%,
// "danger" otherwise.
func Grade(score, total int) string {
	if total <= 0 {
		return "danger"
	}
	p := float64(score) / float64(total) * 100
	switch {
	case p >= 80:
		return "success"
	case p >= 50:
		return "warning"
	default:
		return "danger"
	}
}
