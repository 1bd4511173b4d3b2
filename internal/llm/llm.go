package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/quizboard/internal/llm/prompts"
	"github.com/pavelanni/quizboard/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// MaxDraft caps how many questions a single request may ask for.
const MaxDraft = 20

// ErrNoQuestions is returned when the model's reply held no usable question.
var ErrNoQuestions = errors.New("LLM returned no usable questions")

// draftReply is the JSON object the drafting prompt asks for.
type draftReply struct {
	Questions []draftQuestion `json:"questions"`
}

type draftQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api      *openai.Client
	model    string
	language string
}

// New creates a new LLM client. language names the language questions are
// drafted in; empty leaves it to the model.
func New(baseURL, apiKey, modelName, language string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:      openai.NewClientWithConfig(config),
		model:    modelName,
		language: language,
	}
}

// Ping lists the server's models to check the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM list models: %w", err)
	}
	return nil
}

// GenerateQuestions asks the model for count multiple-choice questions on
// subject. Malformed entries in the reply are dropped; the returned
// questions carry no ids and are tagged with subject.
func (c *Client) GenerateQuestions(ctx context.Context, subject string, count int, difficulty model.Difficulty, existing []string) ([]model.Question, error) {
	if count < 1 {
		count = 1
	}
	if count > MaxDraft {
		count = MaxDraft
	}
	subject = prompts.SanitizeSubject(subject)

	prompt, err := prompts.BuildGeneratePrompt(subject, count, difficulty, c.language, existing)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var reply draftReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	questions := toQuestions(reply.Questions, subject)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

func toQuestions(drafts []draftQuestion, subject string) []model.Question {
	out := make([]model.Question, 0, len(drafts))
	for i, d := range drafts {
		text := strings.TrimSpace(d.Text)
		options := make([]string, 0, len(d.Options))
		for _, o := range d.Options {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}
		if text == "" || len(options) != len(d.Options) || len(options) < 2 ||
			d.Correct < 0 || d.Correct >= len(options) {
			slog.Warn("dropping malformed drafted question", "index", i, "text", d.Text)
			continue
		}
		out = append(out, model.Question{
			Text:    text,
			Options: options,
			Correct: d.Correct,
			Subject: subject,
		})
	}
	return out
}
