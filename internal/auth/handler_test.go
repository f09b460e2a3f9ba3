package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridianhq/meridian/internal/shared"
)

func newTestHandler(t *testing.T, repo *memRepo) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "meridian_session", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(repo), sm), sm
}

// postLogin runs the login handler the way the session middleware
// would: load the session from the request, place it in context.
func postLogin(t *testing.T, h *Handler, sm *shared.SessionManager, cookie *http.Cookie) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	body := `{"email":"officer@firm.test","password":"s3cret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	sess, err := sm.Load(req.Context(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.handleLogin(rr, req)
	return rr, sess
}

func TestLoginWithoutCookieRegistersSession(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "officer@firm.test", "s3cret-pass", true)
	h, sm := newTestHandler(t, repo)

	rr, sess := postLogin(t, h, sm, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status %d, body %s", rr.Code, rr.Body.String())
	}
	if sess.ID == "" {
		t.Fatal("session has no ID after login")
	}
	if got, ok := repo.sessions[sess.ID]; !ok || got != 1 {
		t.Fatalf("session %q missing from registry %v", sess.ID, repo.sessions)
	}

	commit := httptest.NewRecorder()
	if err := sm.Commit(context.Background(), commit, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := commit.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != sess.ID {
		t.Fatalf("committed cookie must name the registered session, got %v", cookies)
	}
}

func TestLoginRotatesPresetCookie(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "officer@firm.test", "s3cret-pass", true)
	h, sm := newTestHandler(t, repo)

	preset := &http.Cookie{Name: "meridian_session", Value: "chosen-before-login"}
	rr, sess := postLogin(t, h, sm, preset)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status %d", rr.Code)
	}
	if sess.ID == preset.Value {
		t.Fatal("session ID must change on login")
	}
	if _, ok := repo.sessions[preset.Value]; ok {
		t.Fatal("pre-login ID must never reach the registry")
	}
	if _, ok := repo.sessions[sess.ID]; !ok {
		t.Fatalf("rotated session %q missing from registry %v", sess.ID, repo.sessions)
	}
}
