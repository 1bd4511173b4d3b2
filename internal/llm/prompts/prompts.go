package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/quizboard/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var subjectTagRegex = regexp.MustCompile(`(?i)</?\s*subject\b[^>]*>`)

const (
	maxSubjectRunes  = 120
	maxExistingItems = 50
)

var guidance = map[model.Difficulty]string{
	model.DifficultyEasy:   "Ask about core definitions and well-known facts. Distractors should be clearly wrong to someone who studied the topic.",
	model.DifficultyMedium: "Mix recall with simple application. Distractors should be plausible.",
	model.DifficultyHard:   "Require reasoning or combining ideas. Distractors should reflect common misconceptions.",
}

// IsValidDifficulty checks if a difficulty name is known.
func IsValidDifficulty(d string) bool {
	_, ok := guidance[model.Difficulty(d)]
	return ok
}

// GenerateData holds template data for the question drafting prompt.
type GenerateData struct {
	Subject    string
	Count      int
	Difficulty model.Difficulty
	Guidance   string
	Language   string
	Existing   []string
}

var (
	loadOnce    sync.Once
	loadErr     error
	generateTpl *template.Template
)

func load() error {
	loadOnce.Do(func() {
		content, err := templateFS.ReadFile("templates/generate.txt")
		if err != nil {
			loadErr = errors.New("failed to read prompt file generate.txt: " + err.Error())
			return
		}
		generateTpl, err = template.New("generate").Parse(string(content))
		if err != nil {
			loadErr = errors.New("failed to parse prompt template generate.txt: " + err.Error())
		}
	})
	return loadErr
}

// BuildGeneratePrompt renders the drafting prompt. existing lists question
// texts already in the bank for the subject so the model avoids repeats.
func BuildGeneratePrompt(subject string, count int, difficulty model.Difficulty, language string, existing []string) (string, error) {
	if err := load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	if !IsValidDifficulty(string(difficulty)) {
		return "", errors.New("invalid difficulty: " + string(difficulty))
	}
	subject = SanitizeSubject(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if len(existing) > maxExistingItems {
		existing = existing[:maxExistingItems]
	}

	data := GenerateData{
		Subject:    subject,
		Count:      count,
		Difficulty: difficulty,
		Guidance:   guidance[difficulty],
		Language:   language,
		Existing:   existing,
	}
	var buf bytes.Buffer
	if err := generateTpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SanitizeSubject strips delimiter tags and newlines and caps the length.
func SanitizeSubject(s string) string {
	s = subjectTagRegex.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxSubjectRunes {
		s = string([]rune(s)[:maxSubjectRunes])
	}
	return s
}
