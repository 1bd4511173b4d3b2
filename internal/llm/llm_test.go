package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/quizboard/internal/model"
)

// fakeServer answers chat completions with reply as the assistant content.
func fakeServer(t *testing.T, reply string, gotPrompt *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"object":"list","data":[{"id":"test-model","object":"model"}]}`)
		case "/v1/chat/completions":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
				ResponseFormat struct {
					Type string `json:"type"`
				} `json:"response_format"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req.ResponseFormat.Type != "json_object" {
				t.Errorf("response_format = %q, want json_object", req.ResponseFormat.Type)
			}
			if gotPrompt != nil && len(req.Messages) > 0 {
				*gotPrompt = req.Messages[0].Content
			}
			resp := map[string]any{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"choices": []map[string]any{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": reply},
				}},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateQuestions(t *testing.T) {
	reply := `{"questions":[
		{"text":" What is 2+2? ","options":["3","4","5"],"correct":1},
		{"text":"","options":["a","b"],"correct":0},
		{"text":"Out of range","options":["a","b"],"correct":5},
		{"text":"Blank option","options":["a"," "],"correct":0}
	]}`
	var prompt string
	srv := fakeServer(t, reply, &prompt)
	c := New(srv.URL+"/v1", "key", "test-model", "English")

	qs, err := c.GenerateQuestions(context.Background(), "Math", 3, model.DifficultyEasy, []string{"What is 1+1?"})
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(qs) != 1 {
		t.Fatalf("got %d questions, want 1", len(qs))
	}
	q := qs[0]
	if q.Text != "What is 2+2?" || q.Correct != 1 || q.Subject != "Math" || q.ID != 0 {
		t.Errorf("unexpected question %+v", q)
	}
	for _, want := range []string{"<subject>Math</subject>", "NUMBER OF QUESTIONS: 3", "What is 1+1?", "English"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateQuestionsTrimsToCount(t *testing.T) {
	reply := `{"questions":[
		{"text":"A","options":["1","2"],"correct":0},
		{"text":"B","options":["1","2"],"correct":1}
	]}`
	srv := fakeServer(t, reply, nil)
	c := New(srv.URL+"/v1", "key", "test-model", "")

	qs, err := c.GenerateQuestions(context.Background(), "S", 1, model.DifficultyMedium, nil)
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(qs) != 1 || qs[0].Text != "A" {
		t.Errorf("got %+v, want only A", qs)
	}
}

func TestGenerateQuestionsErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		check func(error) bool
	}{
		{"not json", "sorry, I cannot", func(err error) bool { return err != nil && strings.Contains(err.Error(), "parse LLM response") }},
		{"nothing usable", `{"questions":[{"text":"x","options":["a"],"correct":0}]}`, func(err error) bool { return errors.Is(err, ErrNoQuestions) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeServer(t, tt.reply, nil)
			c := New(srv.URL+"/v1", "key", "test-model", "")
			_, err := c.GenerateQuestions(context.Background(), "S", 2, model.DifficultyHard, nil)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGenerateQuestionsInvalidDifficulty(t *testing.T) {
	c := New("http://127.0.0.1:1/v1", "key", "m", "")
	if _, err := c.GenerateQuestions(context.Background(), "S", 2, model.Difficulty("extreme"), nil); err == nil {
		t.Error("expected error for unknown difficulty")
	}
}

func TestPing(t *testing.T) {
	srv := fakeServer(t, "", nil)
	c := New(srv.URL+"/v1", "key", "test-model", "")
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
