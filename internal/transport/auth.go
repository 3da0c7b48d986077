package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/internal/screen"
	"github.com/pitabwire/shinsei/model"
)

type workspaceKey struct{}

// WorkspaceFrom returns the workspace attached by RequireSession.
func WorkspaceFrom(ctx context.Context) *screen.Workspace {
	ws, _ := ctx.Value(workspaceKey{}).(*screen.Workspace)
	return ws
}

// SessionCookie reads and writes the cookie carrying the signed session
// token.
type SessionCookie struct {
	Name   string
	Secure bool
}

func (c SessionCookie) read(r *http.Request) string {
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c SessionCookie) set(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireSession returns middleware that resolves the session cookie to a
// live workspace. Requests without one are rejected with
// SESSION_NOT_PRESENT and the stale cookie is cleared.
func RequireSession(screens *screen.Router, cookie SessionCookie) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookie.read(r)
			ws, err := screens.Resume(r.Context(), token)
			if err != nil {
				if ee := envelope(err); ee.Code == model.ErrSessionNotPresent && token != "" {
					cookie.clear(w)
				}
				writeScreenError(w, r, err, screen.LoginScreen(""))
				return
			}

			rctx := &model.RequestContext{
				SessionID:     ws.SessionID(),
				UserID:        ws.UserID(),
				CorrelationID: CorrelationIDFrom(r.Context()),
				TraceID:       observability.TraceIDFromContext(r.Context()),
				Locale:        r.Header.Get("Accept-Language"),
			}
			ctx := model.WithRequestContext(r.Context(), rctx)
			ctx = context.WithValue(ctx, workspaceKey{}, ws)
			publishRequestContext(ctx, rctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
