package scoring

import (
	"reflect"
	"testing"

	"github.com/pavelanni/quizboard/internal/model"
)

func mathBank() []model.Question {
	return []model.Question{
		{ID: 1, Text: "1+1?", Options: []string{"A", "B"}, Correct: 0, Subject: "Math"},
	}
}

func mixedBank() []model.Question {
	return []model.Question{
		{ID: 1, Text: "2+2?", Options: []string{"4", "5"}, Correct: 0, Subject: "Math"},
		{ID: 2, Text: "3*3?", Options: []string{"6", "9"}, Correct: 1, Subject: "Math"},
		{ID: 3, Text: "Capital of Brazil?", Options: []string{"Rio", "Brasília"}, Correct: 1, Subject: "Geography"},
		{ID: 4, Text: "Longest river?", Options: []string{"Nile", "Amazon"}, Correct: 1, Subject: "Geography"},
	}
}

func TestScoreCorrectAnswer(t *testing.T) {
	res := Score([]model.Answer{{ID: 1, Chosen: 0}}, mathBank(), nil)
	if res.Score != 1 {
		t.Errorf("Score = %d, want 1", res.Score)
	}
	if len(res.Wrong) != 0 {
		t.Errorf("expected no wrong answers, got %+v", res.Wrong)
	}
	if res.PerSubject["Math"] != 1 {
		t.Errorf("PerSubject[Math] = %d, want 1", res.PerSubject["Math"])
	}
}

func TestScoreWrongAnswer(t *testing.T) {
	res := Score([]model.Answer{{ID: 1, Chosen: 1}}, mathBank(), nil)
	if res.Score != 0 {
		t.Errorf("Score = %d, want 0", res.Score)
	}
	want := []model.WrongAnswer{{ID: 1, Question: "1+1?", Wrong: "B", Correct: "A", Subject: "Math"}}
	if !reflect.DeepEqual(res.Wrong, want) {
		t.Errorf("Wrong = %+v, want %+v", res.Wrong, want)
	}
	if res.PerSubject["Math"] != 0 {
		t.Errorf("PerSubject[Math] = %d, want 0", res.PerSubject["Math"])
	}
}

func TestScoreUnknownIDSkipped(t *testing.T) {
	res := Score([]model.Answer{{ID: 1, Chosen: 0}, {ID: 99, Chosen: 0}}, mathBank(), []int64{1, 99})
	if res.Score != 1 {
		t.Errorf("Score = %d, want 1", res.Score)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if res.Considered != 1 {
		t.Errorf("Considered = %d, want 1", res.Considered)
	}
}

func TestScoreOutOfRangeOption(t *testing.T) {
	res := Score([]model.Answer{{ID: 1, Chosen: 7}}, mathBank(), nil)
	if len(res.Wrong) != 1 {
		t.Fatalf("expected 1 wrong answer, got %d", len(res.Wrong))
	}
	if res.Wrong[0].Wrong != "Option 7" {
		t.Errorf("Wrong label = %q, want 'Option 7'", res.Wrong[0].Wrong)
	}
	if res.Wrong[0].Correct != "A" {
		t.Errorf("Correct label = %q, want 'A'", res.Wrong[0].Correct)
	}
}

func TestScoreAllowedBoundsTotal(t *testing.T) {
	tests := []struct {
		name      string
		answers   []model.Answer
		allowed   []int64
		wantTotal int
	}{
		{"allowed list", []model.Answer{{ID: 1, Chosen: 0}}, []int64{1, 2, 3}, 3},
		{"falls back to answered ids", []model.Answer{{ID: 1, Chosen: 0}, {ID: 3, Chosen: 1}}, nil, 2},
		{"falls back to whole bank", []model.Answer{{ID: 50, Chosen: 0}}, nil, 4},
		{"allowed ids not in bank", []model.Answer{{ID: 2, Chosen: 1}}, []int64{70, 71}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(tt.answers, mixedBank(), tt.allowed)
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
		})
	}
}

func TestScoreInvariants(t *testing.T) {
	answers := []model.Answer{
		{ID: 1, Chosen: 0},
		{ID: 2, Chosen: 0},
		{ID: 3, Chosen: 1},
		{ID: 4, Chosen: 0},
		{ID: 42, Chosen: 1},
	}
	res := Score(answers, mixedBank(), []int64{1, 2, 3, 4})

	if res.Score != res.Considered-len(res.Wrong) {
		t.Errorf("Score %d != Considered %d - wrong %d", res.Score, res.Considered, len(res.Wrong))
	}
	sum := 0
	for _, n := range res.PerSubject {
		sum += n
	}
	if sum != res.Score {
		t.Errorf("sum(PerSubject) = %d, want %d", sum, res.Score)
	}
	if res.PerSubject["Math"] != 1 || res.PerSubject["Geography"] != 1 {
		t.Errorf("PerSubject = %v", res.PerSubject)
	}
}

func TestScoreLastAnswerWins(t *testing.T) {
	answers := []model.Answer{{ID: 1, Chosen: 1}, {ID: 2, Chosen: 1}, {ID: 1, Chosen: 0}}
	res := Score(answers, mixedBank(), nil)
	if res.Score != 2 {
		t.Errorf("Score = %d, want 2", res.Score)
	}
	if len(res.Answers) != 2 {
		t.Fatalf("Answers = %+v, want 2 entries", res.Answers)
	}
	if res.Answers[1] != (model.Answer{ID: 1, Chosen: 0}) {
		t.Errorf("latest answer for id 1 should be last, got %+v", res.Answers)
	}
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []model.Answer
		want []model.Answer
	}{
		{"empty", nil, []model.Answer{}},
		{"no duplicates", []model.Answer{{ID: 1, Chosen: 0}, {ID: 2, Chosen: 1}}, []model.Answer{{ID: 1, Chosen: 0}, {ID: 2, Chosen: 1}}},
		{"duplicate moves to end", []model.Answer{{ID: 1, Chosen: 0}, {ID: 2, Chosen: 1}, {ID: 1, Chosen: 3}}, []model.Answer{{ID: 2, Chosen: 1}, {ID: 1, Chosen: 3}}},
		{"same answer twice", []model.Answer{{ID: 5, Chosen: 2}, {ID: 5, Chosen: 2}}, []model.Answer{{ID: 5, Chosen: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedupe(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dedupe() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPercentageAndGrade(t *testing.T) {
	tests := []struct {
		score, total int
		wantPct      int
		wantGrade    string
	}{
		{0, 0, 0, "danger"},
		{4, 5, 80, "success"},
		{1, 2, 50, "warning"},
		{2, 3, 67, "warning"},
		{1, 3, 33, "danger"},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.wantPct {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.score, tt.total, got, tt.wantPct)
		}
		if got := Grade(tt.score, tt.total); got != tt.wantGrade {
			t.Errorf("Grade(%d, %d) = %q, want %q", tt.score, tt.total, got, tt.wantGrade)
		}
	}
}
