package store

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/quizboard/internal/model"
	"github.com/pavelanni/quizboard/internal/scoring"
)

// Ref identifies a stored attempt by id, by position, or both. The id is
// tried first.
type Ref struct {
	ID    string
	Index *int
}

// Find returns the attempt ref points at with its position.
func (s *ResultStore) Find(ref Ref) (model.Attempt, int, error) {
	attempts := s.ReadAll()
	pos := Locate(attempts, ref.ID, ref.Index)
	if pos < 0 {
		return model.Attempt{}, -1, ErrAttemptNotFound
	}
	return attempts[pos], pos, nil
}

// Create appends a started attempt with no answers and returns it with its
// position.
func (s *ResultStore) Create(name string, questionIDs []int64, now time.Time) (model.Attempt, int, error) {
	a := model.Attempt{
		ID:                uuid.NewString(),
		Name:              name,
		TotalQuestions:    len(questionIDs),
		QuestionIDs:       questionIDs,
		Answers:           []model.Answer{},
		WrongAnswers:      []model.WrongAnswer{},
		Timestamp:         now,
		PerSubjectCorrect: map[string]int{},
		Status:            model.StatusStarted,
	}
	pos := -1
	err := s.Update(func(cur []model.Attempt) ([]model.Attempt, error) {
		pos = len(cur)
		return append(cur, a), nil
	})
	if err != nil {
		return model.Attempt{}, -1, err
	}
	slog.Debug("created attempt", "id", a.ID, "index", pos, "questions", len(questionIDs))
	return a, pos, nil
}

// ApplyAnswer records one answer on the referenced attempt and rescores it
// from the cumulative answer set, so repeating the same answer leaves the
// stored state unchanged apart from the timestamp. A finished attempt is
// final: it is returned as stored together with ErrAttemptFinished.
func (s *ResultStore) ApplyAnswer(ref Ref, answer model.Answer, bank []model.Question, now time.Time) (model.Attempt, error) {
	var updated model.Attempt
	err := s.Update(func(cur []model.Attempt) ([]model.Attempt, error) {
		pos := Locate(cur, ref.ID, ref.Index)
		if pos < 0 {
			return nil, ErrAttemptNotFound
		}
		a := cur[pos]
		if a.Status == model.StatusFinished {
			updated = a
			return nil, ErrAttemptFinished
		}
		res := scoring.Score(append(a.Answers, answer), bank, a.QuestionIDs)
		res.Apply(&a)
		a.Status = model.StatusPartial
		a.Timestamp = now
		cur[pos] = a
		updated = a
		return cur, nil
	})
	return updated, err
}

// Finish stores a finished attempt. It overwrites the referenced attempt
// when ref still resolves and appends otherwise, so an id that was cleared
// away never lands on another attempt. The attempt keeps its existing id,
// or gets a new one. It returns the stored attempt and its position.
func (s *ResultStore) Finish(ref Ref, a model.Attempt) (model.Attempt, int, error) {
	pos := -1
	err := s.Update(func(cur []model.Attempt) ([]model.Attempt, error) {
		pos = Locate(cur, ref.ID, ref.Index)
		if pos >= 0 {
			if a.ID == "" {
				a.ID = cur[pos].ID
			}
			if len(a.QuestionIDs) == 0 {
				a.QuestionIDs = cur[pos].QuestionIDs
			}
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.Status = model.StatusFinished
		if pos < 0 {
			pos = len(cur)
			return append(cur, a), nil
		}
		cur[pos] = a
		return cur, nil
	})
	if err != nil {
		return model.Attempt{}, -1, err
	}
	return a, pos, nil
}
