package model

import (
	"context"
	"time"
)

// AttemptStatus represents where an attempt is in its lifecycle.
type AttemptStatus string

const (
	StatusStarted  AttemptStatus = "started"
	StatusPartial  AttemptStatus = "partial"
	StatusFinished AttemptStatus = "finished"
)

// Difficulty is used when drafting new questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a multiple-choice question from the question bank.
type Question struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
	Subject string   `json:"subject"`
}

// Answer is one submitted choice.
type Answer struct {
	ID     int64 `json:"id"`
	Chosen int   `json:"chosenIndex"`
}

// WrongAnswer records an incorrect answer with its option labels resolved.
type WrongAnswer struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Wrong    string `json:"wrong"`
	Correct  string `json:"correct"`
	Subject  string `json:"subject"`
}

// Attempt is one user's quiz run and its outcome.
type Attempt struct {
	ID                string         `json:"id,omitempty"`
	Name              string         `json:"name"`
	TotalQuestions    int            `json:"totalQuestions"`
	QuestionIDs       []int64        `json:"questionIds,omitempty"`
	Answers           []Answer       `json:"answers"`
	WrongAnswers      []WrongAnswer  `json:"wrongAnswers"`
	Timestamp         time.Time      `json:"timestamp"`
	PerSubjectCorrect map[string]int `json:"perSubjectCorrect"`
	Score             int            `json:"score"`
	Status            AttemptStatus  `json:"status"`
}

// QuizData is the assembled quiz held between setup and render.
type QuizData struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuizConfig holds runtime settings set via CLI flags.
type QuizConfig struct {
	NumQuestions  int    // 0 means all matching questions
	Shuffle       bool   // randomize question order on quiz assembly
	BasePath      string // URL prefix for sub-path deployments
	SecureCookies bool
	Lang          string
	LLMEnabled    bool // question drafting is available on the admin page
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
