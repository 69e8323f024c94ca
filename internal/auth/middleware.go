package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rfid-attendance/attendance/internal/platform/httpx"
	"github.com/rfid-attendance/attendance/internal/shared"
	"github.com/rfid-attendance/attendance/internal/users"
)

// Middleware guards routes that need a signed-in operator.
type Middleware struct {
	Service  *Service
	Sessions *shared.SessionManager
	Logger   *slog.Logger
}

// RequireUser rejects requests whose session has no user, or whose user has
// since been deleted. Browsers are sent to the login page; JSON clients get 401.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(r)
		if !ok {
			m.deny(w, r)
			return
		}
		if _, err := m.Service.CurrentUser(r.Context(), userID); err != nil {
			if !errors.Is(err, users.ErrNotFound) {
				m.logger().Error("require user", slog.Int64("user_id", userID), slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if sess := shared.SessionFromContext(r.Context()); sess != nil && m.Sessions != nil {
				m.Sessions.Destroy(sess)
			}
			m.deny(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
