package screen

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/auth"
	"github.com/pitabwire/shinsei/internal/session"
	"github.com/pitabwire/shinsei/model"
)

// Router decides between the login and the workflow screen and moves a
// browser session across them.
type Router struct {
	checker    *auth.Checker
	sessions   session.Store
	signer     *session.Signer
	workspaces *Manager
}

// NewRouter wires a Router.
func NewRouter(checker *auth.Checker, sessions session.Store, signer *session.Signer, workspaces *Manager) *Router {
	return &Router{checker: checker, sessions: sessions, signer: signer, workspaces: workspaces}
}

// Workspaces returns the workspace manager.
func (r *Router) Workspaces() *Manager { return r.workspaces }

// Login checks the credentials. On success it starts a session and returns
// the signed token for the session cookie. A failed check returns a
// LOGIN_FAILED envelope carrying the message for that combination.
func (r *Router) Login(ctx context.Context, loginID, password string) (string, *Workspace, error) {
	deps := r.workspaces.deps
	outcome := r.checker.Check(loginID, password)
	deps.Recorder.RecordLogin(outcome.String())
	if outcome != auth.OK {
		deps.Logger.Info("login rejected", zap.Stringer("outcome", outcome))
		return "", nil, model.NewLoginFailedError(outcome.Message())
	}

	rec := session.Record{
		ID:        uuid.NewString(),
		UserID:    r.checker.UserID(),
		CreatedAt: deps.Now().UTC(),
	}
	if err := r.sessions.Put(ctx, rec, r.signer.TTL()); err != nil {
		deps.Logger.Error("session store write failed", zap.Error(err))
		return "", nil, model.NewBackendUnavailableError()
	}
	token, err := r.signer.Sign(rec.ID, rec.UserID)
	if err != nil {
		return "", nil, err
	}
	deps.Logger.Info("login accepted", zap.String("session_id", rec.ID), zap.String("user_id", rec.UserID))
	return token, r.workspaces.Open(ctx, rec.ID, rec.UserID), nil
}

// Resume returns the workspace of the session carried by token.
func (r *Router) Resume(ctx context.Context, token string) (*Workspace, error) {
	if token == "" {
		return nil, model.NewSessionNotPresentError()
	}
	sid, err := r.signer.Verify(token)
	if err != nil {
		return nil, model.NewSessionNotPresentError()
	}
	rec, err := r.sessions.Get(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		r.workspaces.Drop(sid)
		return nil, model.NewSessionNotPresentError()
	}
	if err != nil {
		r.workspaces.deps.Logger.Error("session store read failed", zap.Error(err))
		return nil, model.NewBackendUnavailableError()
	}
	return r.workspaces.Open(ctx, rec.ID, rec.UserID), nil
}

// Entry renders the top-level screen: the workflow screen for a live
// session and the login screen otherwise.
func (r *Router) Entry(ctx context.Context, token string) View {
	ws, err := r.Resume(ctx, token)
	if err != nil {
		return LoginScreen("")
	}
	return ws.View()
}

// End deletes the session behind ws and drops its workspace.
func (r *Router) End(ctx context.Context, ws *Workspace) error {
	r.workspaces.Drop(ws.SessionID())
	if err := r.sessions.Delete(ctx, ws.SessionID()); err != nil {
		r.workspaces.deps.Logger.Error("session store delete failed", zap.Error(err))
		return model.NewBackendUnavailableError()
	}
	r.workspaces.deps.Logger.Info("session ended", zap.String("session_id", ws.SessionID()))
	return nil
}

// TokenTTL is the lifetime of session tokens.
func (r *Router) TokenTTL() time.Duration {
	return r.signer.TTL()
}
