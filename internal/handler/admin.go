package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/quizboard/internal/handler/views"
	appI18n "github.com/pavelanni/quizboard/internal/i18n"
	"github.com/pavelanni/quizboard/internal/llm/prompts"
	"github.com/pavelanni/quizboard/internal/model"
	"github.com/pavelanni/quizboard/internal/store"
)

// draftTimeout bounds one question drafting call.
const draftTimeout = 2 * time.Minute

func (h *Handler) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	message := h.sessions.TakeFlash(r)
	render(w, r, views.AdminPage(h.questions.Load(), message, h.config.LLMEnabled))
}

func (h *Handler) handleSaveQuestions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw := bytes.TrimSpace([]byte(r.FormValue("json")))
	if len(raw) == 0 {
		http.Error(w, "no questions given", http.StatusBadRequest)
		return
	}

	var questions []model.Question
	if raw[0] == '{' {
		var q model.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		questions = []model.Question{q}
	} else if err := json.Unmarshal(raw, &questions); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	added, err := h.questions.Add(questions)
	if errors.Is(err, store.ErrInvalidQuestion) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("failed to save questions", "error", err)
		http.Error(w, "failed to save questions", http.StatusInternalServerError)
		return
	}

	h.sessions.SetFlash(w, r, appI18n.Tp(r.Context(), "QuestionsAdded", len(added)))
	h.redirect(w, r, "/adicionar")
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("id")), 10, 64)
	if err != nil {
		http.Error(w, "invalid question ID", http.StatusBadRequest)
		return
	}

	removed, err := h.questions.Delete(id)
	if err != nil {
		slog.Error("failed to delete question", "id", id, "error", err)
		http.Error(w, "failed to delete question", http.StatusInternalServerError)
		return
	}
	if removed {
		h.sessions.SetFlash(w, r, appI18n.T(r.Context(), "QuestionDeleted"))
	} else {
		h.sessions.SetFlash(w, r, appI18n.T(r.Context(), "QuestionNotFound"))
	}
	h.redirect(w, r, "/adicionar")
}

func (h *Handler) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if h.drafter == nil {
		http.Error(w, "question drafting is disabled", http.StatusNotFound)
		return
	}

	subject := prompts.SanitizeSubject(r.FormValue("subject"))
	if subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}
	difficulty := strings.ToLower(strings.TrimSpace(r.FormValue("difficulty")))
	if difficulty == "" {
		difficulty = string(model.DifficultyMedium)
	}
	if !prompts.IsValidDifficulty(difficulty) {
		http.Error(w, "invalid difficulty", http.StatusBadRequest)
		return
	}
	count := 5
	if v := strings.TrimSpace(r.FormValue("count")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "count must be a positive integer", http.StatusBadRequest)
			return
		}
		count = n
	}

	var existing []string
	for _, q := range h.questions.Load() {
		if strings.EqualFold(q.Subject, subject) {
			existing = append(existing, q.Text)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), draftTimeout)
	defer cancel()
	drafted, err := h.drafter.GenerateQuestions(ctx, subject, count, model.Difficulty(difficulty), existing)
	if err != nil {
		slog.Error("failed to draft questions", "subject", subject, "error", err)
		h.sessions.SetFlash(w, r, appI18n.T(r.Context(), "GenerateFailed"))
		h.redirect(w, r, "/adicionar")
		return
	}

	added, err := h.questions.Add(drafted)
	if err != nil {
		slog.Error("failed to save drafted questions", "subject", subject, "error", err)
		h.sessions.SetFlash(w, r, appI18n.T(r.Context(), "GenerateFailed"))
		h.redirect(w, r, "/adicionar")
		return
	}
	slog.Info("drafted questions", "subject", subject, "difficulty", difficulty, "count", len(added))
	h.sessions.SetFlash(w, r, appI18n.Tp(r.Context(), "QuestionsAdded", len(added)))
	h.redirect(w, r, "/adicionar")
}
