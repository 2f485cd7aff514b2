package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"patternweb/playground/pkg/telemetry/logging"
)

// SessionCookie names the cookie that ties requests of one browser tab
// together in the logs.
const SessionCookie = "playground_session"

// Session tags the context with the browser session, issuing a cookie on
// first contact.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session string
		if c, err := r.Cookie(SessionCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				session = c.Value
			}
		}
		if session == "" {
			session = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    session,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(logging.WithSession(r.Context(), session)))
	})
}
