package store

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/quizboard/internal/model"
	"github.com/pavelanni/quizboard/internal/scoring"
)

var attemptBank = []model.Question{
	{ID: 1, Text: "Q1", Options: []string{"A", "B"}, Correct: 0, Subject: "Math"},
	{ID: 2, Text: "Q2", Options: []string{"A", "B"}, Correct: 1, Subject: "Math"},
	{ID: 3, Text: "Q3", Options: []string{"A", "B"}, Correct: 0, Subject: "Geo"},
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	s := newTestResultStore(t)

	a, pos, err := s.Create("Ana", []int64{1, 2}, fixedNow)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pos != 0 || a.ID == "" || a.Status != model.StatusStarted || a.TotalQuestions != 2 {
		t.Errorf("unexpected attempt %+v at %d", a, pos)
	}
	_, pos2, err := s.Create("Bia", []int64{3}, fixedNow)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pos2 != 1 {
		t.Errorf("second position = %d, want 1", pos2)
	}
	if got := s.ReadAll(); len(got) != 2 || got[0].Name != "Ana" {
		t.Errorf("stored = %+v", got)
	}
}

func TestApplyAnswerIsIdempotent(t *testing.T) {
	s := newTestResultStore(t)
	a, pos, err := s.Create("Ana", []int64{1, 2, 3}, fixedNow)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ans := model.Answer{ID: 2, Chosen: 0}
	first, err := s.ApplyAnswer(Ref{Index: &pos}, ans, attemptBank, fixedNow)
	if err != nil {
		t.Fatalf("ApplyAnswer: %v", err)
	}
	second, err := s.ApplyAnswer(Ref{ID: a.ID}, ans, attemptBank, fixedNow)
	if err != nil {
		t.Fatalf("ApplyAnswer: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated answer changed state:\n%+v\n%+v", first, second)
	}
	if second.Status != model.StatusPartial || second.Score != 0 || len(second.WrongAnswers) != 1 {
		t.Errorf("unexpected partial state %+v", second)
	}
	if len(second.Answers) != 1 {
		t.Errorf("answers = %v, want one", second.Answers)
	}
}

func TestApplyAnswerLatestWins(t *testing.T) {
	s := newTestResultStore(t)
	_, pos, _ := s.Create("Ana", []int64{1, 2}, fixedNow)

	s.ApplyAnswer(Ref{Index: &pos}, model.Answer{ID: 1, Chosen: 1}, attemptBank, fixedNow)
	got, err := s.ApplyAnswer(Ref{Index: &pos}, model.Answer{ID: 1, Chosen: 0}, attemptBank, fixedNow)
	if err != nil {
		t.Fatalf("ApplyAnswer: %v", err)
	}
	if got.Score != 1 || len(got.WrongAnswers) != 0 {
		t.Errorf("score = %d wrong = %v, want 1 and none", got.Score, got.WrongAnswers)
	}
}

func TestApplyAnswerNotFound(t *testing.T) {
	s := newTestResultStore(t)
	s.Create("Ana", []int64{1}, fixedNow)

	bad := 5
	_, err := s.ApplyAnswer(Ref{Index: &bad}, model.Answer{ID: 1}, attemptBank, fixedNow)
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("err = %v, want ErrAttemptNotFound", err)
	}
	_, err = s.ApplyAnswer(Ref{ID: "missing"}, model.Answer{ID: 1}, attemptBank, fixedNow)
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("err = %v, want ErrAttemptNotFound", err)
	}
}

func TestConcurrentApplyAnswerKeepsAll(t *testing.T) {
	s := newTestResultStore(t)
	_, pos, _ := s.Create("Ana", []int64{1, 2, 3}, fixedNow)

	var wg sync.WaitGroup
	for _, q := range attemptBank {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := s.ApplyAnswer(Ref{Index: &pos}, model.Answer{ID: id, Chosen: 0}, attemptBank, fixedNow); err != nil {
				t.Errorf("ApplyAnswer(%d): %v", id, err)
			}
		}(q.ID)
	}
	wg.Wait()

	got := s.ReadAll()[pos]
	if len(got.Answers) != 3 {
		t.Errorf("answers = %v, want 3", got.Answers)
	}
	if got.Score != 2 {
		t.Errorf("score = %d, want 2", got.Score)
	}
}

func TestFinish(t *testing.T) {
	s := newTestResultStore(t)
	started, pos, _ := s.Create("Ana", []int64{1, 2}, fixedNow)
	s.Create("Bia", []int64{3}, fixedNow)

	t.Run("overwrites by id", func(t *testing.T) {
		got, at, err := s.Finish(Ref{ID: started.ID}, model.Attempt{Name: "Ana", Score: 2})
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		if at != pos || got.ID != started.ID || got.Status != model.StatusFinished {
			t.Errorf("got %+v at %d", got, at)
		}
		if !reflect.DeepEqual(got.QuestionIDs, []int64{1, 2}) {
			t.Errorf("question ids = %v, want kept", got.QuestionIDs)
		}
		if n := len(s.ReadAll()); n != 2 {
			t.Errorf("stored %d attempts, want 2", n)
		}
	})

	t.Run("overwrites by index", func(t *testing.T) {
		idx := 1
		got, at, err := s.Finish(Ref{Index: &idx}, model.Attempt{Name: "Bia"})
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		if at != 1 || got.ID == "" {
			t.Errorf("got %+v at %d", got, at)
		}
	})

	t.Run("appends when ref is lost", func(t *testing.T) {
		idx := 9
		got, at, err := s.Finish(Ref{ID: "gone", Index: &idx}, model.Attempt{Name: "Caio"})
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		if at != 2 || got.ID == "" || got.ID == "gone" {
			t.Errorf("got %+v at %d", got, at)
		}
		if n := len(s.ReadAll()); n != 3 {
			t.Errorf("stored %d attempts, want 3", n)
		}
	})
}

func TestApplyAnswerLeavesFinishedAttempt(t *testing.T) {
	s := newTestResultStore(t)
	started, _, _ := s.Create("Ana", []int64{1}, fixedNow)

	final := model.Attempt{Name: "Ana", TotalQuestions: 1}
	scoring.Score([]model.Answer{{ID: 1, Chosen: 0}}, attemptBank, []int64{1}).Apply(&final)
	finished, _, err := s.Finish(Ref{ID: started.ID}, final)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if finished.Score != 1 {
		t.Fatalf("finished score = %d, want 1", finished.Score)
	}

	got, err := s.ApplyAnswer(Ref{ID: started.ID}, model.Answer{ID: 1, Chosen: 1}, attemptBank, fixedNow.Add(time.Minute))
	if !errors.Is(err, ErrAttemptFinished) {
		t.Fatalf("err = %v, want ErrAttemptFinished", err)
	}
	if got.Score != 1 || got.Status != model.StatusFinished {
		t.Errorf("returned %+v, want the finished attempt", got)
	}
	stored := s.ReadAll()[0]
	if stored.Score != 1 || len(stored.WrongAnswers) != 0 || len(stored.Answers) != 1 {
		t.Errorf("finished attempt was rescored: %+v", stored)
	}
}

func TestClearedIDNeverTouchesNewAttempt(t *testing.T) {
	s := newTestResultStore(t)
	ana, pos, _ := s.Create("Ana", []int64{1}, fixedNow)
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	bia, _, _ := s.Create("Bia", []int64{1}, fixedNow)

	_, err := s.ApplyAnswer(Ref{ID: ana.ID, Index: &pos}, model.Answer{ID: 1, Chosen: 0}, attemptBank, fixedNow)
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("ApplyAnswer err = %v, want ErrAttemptNotFound", err)
	}
	if got := s.ReadAll()[0]; got.ID != bia.ID || got.Status != model.StatusStarted || len(got.Answers) != 0 {
		t.Errorf("new attempt was modified: %+v", got)
	}

	got, at, err := s.Finish(Ref{ID: ana.ID, Index: &pos}, model.Attempt{Name: "Ana"})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if at != 1 || got.ID == bia.ID {
		t.Errorf("Finish stored %+v at %d, want appended", got, at)
	}
	stored := s.ReadAll()
	if len(stored) != 2 || stored[0].Name != "Bia" || stored[0].ID != bia.ID {
		t.Errorf("stored = %+v", stored)
	}
}
