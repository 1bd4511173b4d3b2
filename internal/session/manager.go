package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/quizboard/internal/model"
)

// CookieName is the cookie carrying the session token.
const CookieName = "quiz_session"

// Manager binds a per-browser token cookie to values in a Store.
type Manager struct {
	store      Store
	ttl        time.Duration
	secure     bool
	cookiePath string
}

// NewManager creates a Manager. basePath scopes the cookie for sub-path deployments.
func NewManager(store Store, ttl time.Duration, secure bool, basePath string) *Manager {
	cookiePath := "/"
	if basePath != "" {
		cookiePath = basePath + "/"
	}
	return &Manager{store: store, ttl: ttl, secure: secure, cookiePath: cookiePath}
}

// SetQuiz stores the assembled quiz for this browser, replacing any previous one.
func (m *Manager) SetQuiz(w http.ResponseWriter, r *http.Request, data model.QuizData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	return m.store.Put(r.Context(), "quiz:"+m.token(w, r), payload, m.ttl)
}

// ConsumeQuiz returns the stored quiz and deletes it. It returns nil when
// there is none.
func (m *Manager) ConsumeQuiz(r *http.Request) (*model.QuizData, error) {
	token := existingToken(r)
	if token == "" {
		return nil, nil
	}
	payload, found, err := m.store.Take(r.Context(), "quiz:"+token)
	if err != nil || !found {
		return nil, err
	}
	var data model.QuizData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return &data, nil
}

// SetFlash stores a one-time message shown on the next page render.
func (m *Manager) SetFlash(w http.ResponseWriter, r *http.Request, msg string) {
	if err := m.store.Put(r.Context(), "flash:"+m.token(w, r), []byte(msg), m.ttl); err != nil {
		slog.Error("failed to store flash message", "error", err)
	}
}

// TakeFlash returns and clears the pending flash message, if any.
func (m *Manager) TakeFlash(r *http.Request) string {
	token := existingToken(r)
	if token == "" {
		return ""
	}
	msg, found, err := m.store.Take(r.Context(), "flash:"+token)
	if err != nil {
		slog.Error("failed to read flash message", "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return string(msg)
}

func (m *Manager) token(w http.ResponseWriter, r *http.Request) string {
	if token := existingToken(r); token != "" {
		return token
	}
	token := uuid.NewString()
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     m.cookiePath,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.ttl > 0 {
		cookie.MaxAge = int(m.ttl.Seconds())
	}
	http.SetCookie(w, cookie)
	// Later reads in the same request must see the new token.
	r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	return token
}

// existingToken returns the first session cookie holding a valid token. A
// malformed cookie sent by the browser is skipped so the token minted for
// this request is found on later reads.
func existingToken(r *http.Request) string {
	for _, c := range r.Cookies() {
		if c.Name != CookieName || c.Value == "" {
			continue
		}
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	return ""
}
