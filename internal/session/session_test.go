package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/pavelanni/quizboard/internal/model"
)

func TestMemoryStoreTakeIsOneShot(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, found, err := s.Take(ctx, "k")
	if err != nil || !found || string(got) != "v" {
		t.Fatalf("first Take = (%q, %v, %v)", got, found, err)
	}
	_, found, err = s.Take(ctx, "k")
	if err != nil || found {
		t.Errorf("second Take found=%v err=%v, want not found", found, err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Put(ctx, "short", []byte("x"), time.Minute)
	_ = s.Put(ctx, "forever", []byte("y"), 0)

	now = now.Add(2 * time.Minute)
	if _, found, _ := s.Take(ctx, "short"); found {
		t.Error("expired entry should not be returned")
	}

	_ = s.Put(ctx, "short2", []byte("z"), time.Minute)
	now = now.Add(2 * time.Minute)
	s.Sweep()
	if s.Len() != 1 {
		t.Errorf("Len after sweep = %d, want 1", s.Len())
	}
	if _, found, _ := s.Take(ctx, "forever"); !found {
		t.Error("entry without ttl should survive")
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s := NewMemoryStore(0)
	t.Cleanup(func() { s.Close() })
	return NewManager(s, time.Hour, false, "")
}

// carryCookies copies Set-Cookie headers from rec into a fresh request.
func carryCookies(rec *httptest.ResponseRecorder, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestManagerQuizRoundTrip(t *testing.T) {
	m := newTestManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quiz", nil)
	data := model.QuizData{
		Name:      "ana",
		Questions: []model.Question{{ID: 1, Text: "Q", Options: []string{"a", "b"}, Subject: "Math"}},
	}
	if err := m.SetQuiz(rec, req, data); err != nil {
		t.Fatalf("SetQuiz: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	next := carryCookies(rec, http.MethodGet, "/iniciar-quiz")
	got, err := m.ConsumeQuiz(next)
	if err != nil {
		t.Fatalf("ConsumeQuiz: %v", err)
	}
	if got == nil || got.Name != "ana" || len(got.Questions) != 1 {
		t.Fatalf("ConsumeQuiz = %+v", got)
	}

	again, err := m.ConsumeQuiz(carryCookies(rec, http.MethodGet, "/iniciar-quiz"))
	if err != nil || again != nil {
		t.Errorf("second ConsumeQuiz = (%+v, %v), want (nil, nil)", again, err)
	}
}

func TestManagerWithoutCookie(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got, err := m.ConsumeQuiz(req); got != nil || err != nil {
		t.Errorf("ConsumeQuiz without cookie = (%+v, %v)", got, err)
	}
	if msg := m.TakeFlash(req); msg != "" {
		t.Errorf("TakeFlash without cookie = %q", msg)
	}

	bogus := httptest.NewRequest(http.MethodGet, "/", nil)
	bogus.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	if got, err := m.ConsumeQuiz(bogus); got != nil || err != nil {
		t.Errorf("ConsumeQuiz with bogus cookie = (%+v, %v)", got, err)
	}
}

func TestManagerReplacesMalformedCookieOnce(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quiz", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})

	if err := m.SetQuiz(rec, req, model.QuizData{Name: "ana"}); err != nil {
		t.Fatalf("SetQuiz: %v", err)
	}
	m.SetFlash(rec, req, "ready")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("set %d cookies, want 1: %+v", len(cookies), cookies)
	}
	next := carryCookies(rec, http.MethodGet, "/iniciar-quiz")
	if got, err := m.ConsumeQuiz(next); err != nil || got == nil || got.Name != "ana" {
		t.Errorf("ConsumeQuiz = (%+v, %v)", got, err)
	}
	if msg := m.TakeFlash(next); msg != "ready" {
		t.Errorf("TakeFlash = %q, want ready", msg)
	}
}

func TestManagerFlash(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	m.SetFlash(rec, httptest.NewRequest(http.MethodPost, "/quiz", nil), "no questions")

	req := carryCookies(rec, http.MethodGet, "/")
	if msg := m.TakeFlash(req); msg != "no questions" {
		t.Errorf("TakeFlash = %q, want 'no questions'", msg)
	}
	if msg := m.TakeFlash(req); msg != "" {
		t.Errorf("second TakeFlash = %q, want empty", msg)
	}
}

func TestManagerCookiePath(t *testing.T) {
	m := NewManager(NewMemoryStore(0), time.Hour, true, "/quiz")
	rec := httptest.NewRecorder()
	m.SetFlash(rec, httptest.NewRequest(http.MethodGet, "/quiz/", nil), "hi")
	c := rec.Result().Cookies()
	if len(c) != 1 || c[0].Path != "/quiz/" || !c[0].Secure {
		t.Errorf("unexpected cookie: %+v", c)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("QUIZBOARD_TEST_REDIS")
	if addr == "" {
		t.Skip("QUIZBOARD_TEST_REDIS not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	key := "test:" + t.Name()
	if err := s.Put(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, found, err := s.Take(ctx, key)
	if err != nil || !found || string(got) != "payload" {
		t.Fatalf("Take = (%q, %v, %v)", got, found, err)
	}
	if _, found, err := s.Take(ctx, key); err != nil || found {
		t.Errorf("second Take found=%v err=%v", found, err)
	}
}
