package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pavelanni/quizboard/internal/model"
)

// ErrInvalidQuestion is returned by Add when a question fails validation.
var ErrInvalidQuestion = errors.New("invalid question")

// QuestionStore reads and rewrites the question bank file. Every Load
// re-reads the file so admin edits are visible immediately.
type QuestionStore struct {
	path string
	mu   sync.Mutex // serializes Add/Delete
}

// NewQuestionStore returns a store for the question bank at path.
func NewQuestionStore(path string) *QuestionStore {
	return &QuestionStore{path: path}
}

// Path returns the backing file path.
func (s *QuestionStore) Path() string {
	return s.path
}

// Load returns all questions. Missing or unreadable files yield an empty bank.
func (s *QuestionStore) Load() []model.Question {
	questions, err := s.read()
	if err != nil {
		slog.Error("failed to load questions", "path", s.path, "error", err)
		return []model.Question{}
	}
	return questions
}

// Subjects returns the sorted distinct subjects of the bank.
func (s *QuestionStore) Subjects() []string {
	return Subjects(s.Load())
}

// Subjects returns the sorted distinct subjects of questions.
func Subjects(questions []model.Question) []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, q := range questions {
		if q.Subject == "" || seen[q.Subject] {
			continue
		}
		seen[q.Subject] = true
		subjects = append(subjects, q.Subject)
	}
	sort.Strings(subjects)
	return subjects
}

// FilterBySubjects returns the questions whose subject is in subjects.
func FilterBySubjects(questions []model.Question, subjects []string) []model.Question {
	want := make(map[string]bool, len(subjects))
	for _, subj := range subjects {
		want[subj] = true
	}
	var out []model.Question
	for _, q := range questions {
		if want[q.Subject] {
			out = append(out, q)
		}
	}
	return out
}

// Add appends questions to the bank. Questions without an ID get the next
// free one. Returns the stored questions.
func (s *QuestionStore) Add(questions []model.Question) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("question bank unreadable, starting from empty", "path", s.path, "error", err)
	}

	ids := make(map[int64]bool, len(current))
	var maxID int64
	for _, q := range current {
		ids[q.ID] = true
		maxID = max(maxID, q.ID)
	}

	added := make([]model.Question, 0, len(questions))
	for i, q := range questions {
		q.Text = strings.TrimSpace(q.Text)
		q.Subject = strings.TrimSpace(q.Subject)
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.ID == 0 {
			maxID++
			q.ID = maxID
		} else if ids[q.ID] {
			return nil, fmt.Errorf("question %d: %w: duplicate id %d", i+1, ErrInvalidQuestion, q.ID)
		}
		ids[q.ID] = true
		maxID = max(maxID, q.ID)
		added = append(added, q)
	}

	if err := s.write(append(current, added...)); err != nil {
		return nil, err
	}
	slog.Info("added questions", "path", s.path, "count", len(added))
	return added, nil
}

// Delete removes the question with the given id. It reports whether a
// question was removed.
func (s *QuestionStore) Delete(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return false, fmt.Errorf("read questions: %w", err)
	}
	kept := current[:0]
	for _, q := range current {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(current) {
		return false, nil
	}
	if err := s.write(kept); err != nil {
		return false, err
	}
	slog.Info("deleted question", "id", id)
	return true, nil
}

func (s *QuestionStore) read() ([]model.Question, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

func (s *QuestionStore) write(questions []model.Question) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := writeJSONAtomic(s.path, questions); err != nil {
		return fmt.Errorf("write questions: %w", err)
	}
	return nil
}

func validateQuestion(q model.Question) error {
	switch {
	case q.Text == "":
		return fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	case q.Subject == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidQuestion)
	case len(q.Options) < 2:
		return fmt.Errorf("%w: at least two options are required", ErrInvalidQuestion)
	case q.Correct < 0 || q.Correct >= len(q.Options):
		return fmt.Errorf("%w: correct option %d out of range", ErrInvalidQuestion, q.Correct)
	case q.ID < 0:
		return fmt.Errorf("%w: negative id", ErrInvalidQuestion)
	}
	return nil
}
