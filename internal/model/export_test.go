package model

import (
	"testing"
	"time"
)

func TestNewAttemptsExport(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attempts := []Attempt{
		{
			Name:              "ana",
			Status:            StatusFinished,
			PerSubjectCorrect: map[string]int{"Math": 2, "History": 1},
			WrongAnswers:      []WrongAnswer{{ID: 3, Subject: "Math"}},
		},
		{
			Name:              "bruno",
			Status:            StatusPartial,
			PerSubjectCorrect: map[string]int{"Math": 1},
		},
	}

	exp := NewAttemptsExport(attempts, now)
	if exp.Count != 2 {
		t.Errorf("Count = %d, want 2", exp.Count)
	}
	if exp.Finished != 1 {
		t.Errorf("Finished = %d, want 1", exp.Finished)
	}
	if got := exp.Subjects["Math"]; got.Correct != 3 || got.Wrong != 1 {
		t.Errorf("Math totals = %+v, want {3 1}", got)
	}
	if got := exp.Subjects["History"]; got.Correct != 1 || got.Wrong != 0 {
		t.Errorf("History totals = %+v, want {1 0}", got)
	}
	if !exp.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", exp.GeneratedAt, now)
	}
}

func TestNewAttemptsExportEmpty(t *testing.T) {
	exp := NewAttemptsExport(nil, time.Now())
	if exp.Attempts == nil {
		t.Fatal("Attempts should be an empty slice, not nil")
	}
	if exp.Count != 0 || exp.Finished != 0 {
		t.Errorf("unexpected counts: %+v", exp)
	}
}
