package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizboard/internal/handler/views"
	appI18n "github.com/pavelanni/quizboard/internal/i18n"
	"github.com/pavelanni/quizboard/internal/model"
	"github.com/pavelanni/quizboard/internal/scoring"
	"github.com/pavelanni/quizboard/internal/store"
)

// scoreboardRefresh is how often the scoreboard page reloads itself.
const scoreboardRefresh = 10

func (h *Handler) handleInitialResult(w http.ResponseWriter, r *http.Request) {
	var req initialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := cleanName(req.Name)
	if name == "" || len(req.QuestionIDs) == 0 {
		writeJSON(w, http.StatusOK, initialResponse{Skip: true})
		return
	}

	a, pos, err := h.results.Create(name, req.QuestionIDs, h.now())
	if err != nil {
		slog.Error("failed to create attempt", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to save result")
		return
	}
	writeJSON(w, http.StatusOK, initialResponse{Index: &pos, ID: a.ID})
}

func (h *Handler) handlePartialResult(w http.ResponseWriter, r *http.Request) {
	var req partialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	answer, err := req.validate()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.results.ApplyAnswer(store.Ref{ID: req.ID, Index: req.Index}, answer, h.questions.Load(), h.now())
	if errors.Is(err, store.ErrAttemptNotFound) {
		writeJSONError(w, http.StatusNotFound, "result not found")
		return
	}
	if errors.Is(err, store.ErrAttemptFinished) {
		writeJSON(w, http.StatusConflict, partialResponse{Score: a.Score})
		return
	}
	if err != nil {
		slog.Error("failed to save partial result", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to save result")
		return
	}
	writeJSON(w, http.StatusOK, partialResponse{OK: true, Score: a.Score})
}

func (h *Handler) handleFinalResult(w http.ResponseWriter, r *http.Request) {
	req, err := decodeFinal(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Answers) == 0 {
		http.Error(w, "answer at least one question", http.StatusBadRequest)
		return
	}

	name := cleanName(req.Name)
	if name == "" {
		name = appI18n.T(r.Context(), "Anonymous")
	}

	ref := store.Ref{ID: req.ID, Index: req.Index}
	allowed := req.AllowedIDs
	if len(allowed) == 0 {
		// Fall back to the questions the started attempt was given.
		if started, _, err := h.results.Find(ref); err == nil {
			allowed = started.QuestionIDs
		}
	}

	res := scoring.Score(req.Answers, h.questions.Load(), allowed)
	if res.Skipped > 0 {
		slog.Warn("skipped answers for unknown questions", "count", res.Skipped, "name", name)
	}
	a := model.Attempt{
		Name:           name,
		TotalQuestions: res.Total,
		QuestionIDs:    allowed,
		Timestamp:      h.now(),
	}
	res.Apply(&a)

	stored, pos, err := h.results.Finish(ref, a)
	if err != nil {
		slog.Error("failed to save result", "error", err)
		http.Error(w, "failed to save result", http.StatusInternalServerError)
		return
	}
	slog.Info("attempt finished", "id", stored.ID, "index", pos, "score", stored.Score, "total", stored.TotalQuestions)
	h.redirect(w, r, fmt.Sprintf("/resultado/%d", pos))
}

func (h *Handler) handleResultPage(w http.ResponseWriter, r *http.Request) {
	a, _, err := h.results.Get(chi.URLParam(r, "ref"))
	if err != nil {
		http.Error(w, "result not found", http.StatusNotFound)
		return
	}
	render(w, r, views.ResultPage(a))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	render(w, r, views.HistoryPage(h.results.ReadAll()))
}

func (h *Handler) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	render(w, r, views.ScoreboardPage(h.results.ReadAll(), scoreboardRefresh))
}

func (h *Handler) handleResultsAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.results.ReadAll())
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.results.Clear(); err != nil {
		slog.Error("failed to clear results", "error", err)
		http.Error(w, "failed to clear scoreboard", http.StatusInternalServerError)
		return
	}
	h.redirect(w, r, "/")
}
