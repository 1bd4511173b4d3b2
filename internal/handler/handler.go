package handler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizboard/internal/handler/views"
	appI18n "github.com/pavelanni/quizboard/internal/i18n"
	"github.com/pavelanni/quizboard/internal/model"
	"github.com/pavelanni/quizboard/internal/session"
	"github.com/pavelanni/quizboard/internal/store"
)

// maxNameLen caps the display name stored with an attempt.
const maxNameLen = 80

// QuestionDrafter drafts new questions for the admin page.
type QuestionDrafter interface {
	GenerateQuestions(ctx context.Context, subject string, count int, difficulty model.Difficulty, existing []string) ([]model.Question, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	questions *store.QuestionStore
	results   *store.ResultStore
	sessions  *session.Manager
	drafter   QuestionDrafter // nil disables question drafting
	config    model.QuizConfig
	now       func() time.Time
}

// New creates a new Handler. drafter may be nil.
func New(qs *store.QuestionStore, rs *store.ResultStore, sm *session.Manager, drafter QuestionDrafter, cfg model.QuizConfig) (*Handler, error) {
	cfg.LLMEnabled = drafter != nil
	return &Handler{
		questions: qs,
		results:   rs,
		sessions:  sm,
		drafter:   drafter,
		config:    cfg,
		now:       time.Now,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/quiz", h.handleStartQuiz)
	r.Get("/iniciar-quiz", h.handleQuizPage)

	r.Post("/resultado-inicial", h.handleInitialResult)
	r.Post("/resultado-parcial", h.handlePartialResult)
	r.Post("/resultado", h.handleFinalResult)
	r.Get("/resultado/{ref}", h.handleResultPage)
	r.Get("/historico", h.handleHistory)
	r.Get("/placar", h.handleScoreboard)
	r.Get("/api/resultados", h.handleResultsAPI)
	r.Post("/limpar-placar", h.handleClear)

	r.Get("/adicionar", h.handleAdminPage)
	r.Post("/salvar-questoes", h.handleSaveQuestions)
	r.Post("/excluir-questao", h.handleDeleteQuestion)
	r.Post("/gerar-questoes", h.handleGenerateQuestions)

	r.Handle("/static/*", staticHandler())
}

// BasePathMiddleware stores the configured base path in the request context
// so views can build links.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes p with the base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, p string) {
	http.Redirect(w, r, h.path(p), http.StatusSeeOther)
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	questions := h.questions.Load()
	message := h.sessions.TakeFlash(r)
	render(w, r, views.HomePage(store.Subjects(questions), len(questions), message))
}

func (h *Handler) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	var subjects []string
	for _, s := range r.Form["subjects"] {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
	}

	questions := store.FilterBySubjects(h.questions.Load(), subjects)
	if len(questions) == 0 {
		h.sessions.SetFlash(w, r, appI18n.T(r.Context(), "NoQuestionsForSubjects"))
		h.redirect(w, r, "/")
		return
	}

	if h.config.Shuffle {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if h.config.NumQuestions > 0 && h.config.NumQuestions < len(questions) {
		questions = questions[:h.config.NumQuestions]
	}

	data := model.QuizData{Name: cleanName(r.FormValue("name")), Questions: questions}
	if err := h.sessions.SetQuiz(w, r, data); err != nil {
		slog.Error("failed to store quiz", "error", err)
		http.Error(w, "failed to start quiz", http.StatusInternalServerError)
		return
	}
	slog.Debug("assembled quiz", "subjects", subjects, "questions", len(questions))
	h.redirect(w, r, "/iniciar-quiz")
}

func (h *Handler) handleQuizPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.sessions.ConsumeQuiz(r)
	if err != nil {
		slog.Error("failed to load quiz", "error", err)
	}
	if data == nil {
		h.sessions.SetFlash(w, r, appI18n.T(r.Context(), "NoQuizFound"))
		h.redirect(w, r, "/")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	render(w, r, views.QuizPage(*data))
}

// cleanName trims s and caps it at maxNameLen runes.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxNameLen {
		s = strings.TrimSpace(string(r[:maxNameLen]))
	}
	return s
}
