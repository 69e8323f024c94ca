package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/rfid-attendance/attendance/internal/auth"
	"github.com/rfid-attendance/attendance/internal/platform/password"
	"github.com/rfid-attendance/attendance/internal/shared"
	"github.com/rfid-attendance/attendance/internal/users"
	"github.com/rfid-attendance/attendance/internal/view"
	_ "github.com/rfid-attendance/attendance/testing"
)

type stubFinder struct {
	user *users.User
}

func (s *stubFinder) FindByEmail(ctx context.Context, email string) (users.User, error) {
	if s.user == nil || s.user.Email != email {
		return users.User{}, users.ErrNotFound
	}
	return *s.user, nil
}

func (s *stubFinder) Get(ctx context.Context, id int64) (users.User, error) {
	if s.user == nil || s.user.ID != id {
		return users.User{}, users.ErrNotFound
	}
	return *s.user, nil
}

type stubSessions struct {
	created []auth.SessionRecord
	deleted []string
}

func (s *stubSessions) Create(ctx context.Context, rec auth.SessionRecord) error {
	s.created = append(s.created, rec)
	return nil
}

func (s *stubSessions) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubSessions) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type authEnv struct {
	handler  *auth.Handler
	service  *auth.Service
	sessions *shared.SessionManager
	records  *stubSessions
}

func newAuthEnv(t *testing.T, finder auth.UserFinder) *authEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	records := &stubSessions{}
	service := auth.NewService(finder, password.NewBcrypt(bcrypt.MinCost), records)
	handler := auth.NewHandler(nil, service, templates, sessionManager, csrfManager)
	return &authEnv{handler: handler, service: service, sessions: sessionManager, records: records}
}

func knownUser(t *testing.T) *users.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &users.User{ID: 1, Name: "Ann", Email: "user@test.local", PasswordHash: string(hashed)}
}

// serve routes req through the auth handler using the session named by
// cookie, or a fresh one when cookie is empty.
func (e *authEnv) serve(t *testing.T, req *http.Request, cookie string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: e.sessions.CookieName(), Value: cookie})
	}
	sess, err := e.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	res := httptest.NewRecorder()
	router := chiRouter(e.handler)
	router.ServeHTTP(res, req)
	if err := e.sessions.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func loginRequest(email, pass, token string) *http.Request {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", pass)
	form.Set("csrf_token", token)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginPage(t *testing.T) {
	env := newAuthEnv(t, &stubFinder{})

	res, sess := env.serve(t, httptest.NewRequest(http.MethodGet, "/auth/login", nil), "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
	if sess.Get(shared.CSRFSessionKey) == "" {
		t.Fatalf("csrf token not set")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newAuthEnv(t, &stubFinder{user: knownUser(t)})

	_, primed := env.serve(t, httptest.NewRequest(http.MethodGet, "/auth/login", nil), "")
	cookie := env.sessions.CookieValue(primed)

	res, sess := env.serve(t, loginRequest("user@test.local", "wrongpass", primed.Get(shared.CSRFSessionKey)), cookie)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid email or password") {
		t.Fatalf("expected error message in response")
	}
	if sess.User() != "" {
		t.Fatalf("session must stay anonymous")
	}
	if len(env.records.created) != 0 {
		t.Fatalf("no session record expected")
	}
}

func TestLoginValidationErrors(t *testing.T) {
	env := newAuthEnv(t, &stubFinder{})

	res, _ := env.serve(t, loginRequest("not-an-email", "", ""), "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "must be a valid email address") || !strings.Contains(body, "is required") {
		t.Fatalf("expected field errors, got %s", body)
	}
}

func TestLoginSuccessRenewsSession(t *testing.T) {
	env := newAuthEnv(t, &stubFinder{user: knownUser(t)})

	_, primed := env.serve(t, httptest.NewRequest(http.MethodGet, "/auth/login", nil), "")
	oldID := primed.ID

	res, sess := env.serve(t, loginRequest("user@test.local", "correctpass", primed.Get(shared.CSRFSessionKey)), env.sessions.CookieValue(primed))
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/users" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if sess.ID == oldID {
		t.Fatalf("session id must change on login")
	}
	if sess.User() != "1" {
		t.Fatalf("expected user 1, got %q", sess.User())
	}
	if len(env.records.created) != 1 || env.records.created[0].ID != sess.ID {
		t.Fatalf("expected session record for %s, got %+v", sess.ID, env.records.created)
	}
	if !env.records.created[0].ExpiresAt.After(env.records.created[0].CreatedAt) {
		t.Fatalf("expiry must follow creation")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newAuthEnv(t, &stubFinder{user: knownUser(t)})

	_, primed := env.serve(t, httptest.NewRequest(http.MethodGet, "/auth/login", nil), "")
	_, signedIn := env.serve(t, loginRequest("user@test.local", "correctpass", primed.Get(shared.CSRFSessionKey)), env.sessions.CookieValue(primed))
	cookie := env.sessions.CookieValue(signedIn)

	res, _ := env.serve(t, httptest.NewRequest(http.MethodPost, "/auth/logout", nil), cookie)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if len(env.records.deleted) != 1 || env.records.deleted[0] != signedIn.ID {
		t.Fatalf("expected session record removal, got %v", env.records.deleted)
	}

	_, after := env.serve(t, httptest.NewRequest(http.MethodGet, "/auth/login", nil), cookie)
	if after.User() != "" {
		t.Fatalf("session must be gone after logout")
	}
}
