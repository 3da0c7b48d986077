package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/contract"
	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/internal/screen"
	"github.com/pitabwire/shinsei/model"
)

const maxJSONBody = 64 << 10

// handlers serves the screen API.
type handlers struct {
	screens   *screen.Router
	contract  *contract.Contract
	cookie    SessionCookie
	maxUpload int64
	logger    *zap.Logger
}

// decode reads a JSON body and validates it against the operation schema.
func (h *handlers) decode(r *http.Request, operationID string, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return model.NewBadRequestError("Request body could not be read")
	}
	if len(data) > maxJSONBody {
		return model.NewBadRequestError("Request body is too large")
	}
	if err := h.contract.Decode(operationID, data, dst); err != nil {
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		h.logRejected(r, operationID, body, err)
		return err
	}
	return nil
}

// logRejected records a refused request body at debug level with its
// sensitive values redacted.
func (h *handlers) logRejected(r *http.Request, operationID string, body map[string]any, err error) {
	logger := observability.RequestLogger(r.Context(), h.logger)
	if ce := logger.Check(zap.DebugLevel, "request body rejected"); ce != nil {
		ce.Write(
			zap.String("operation", operationID),
			zap.Any("body", observability.RedactBody(body)),
			zap.Error(err),
		)
	}
}

// respond writes the workspace view, or err together with it.
func respond(w http.ResponseWriter, r *http.Request, ws *screen.Workspace, err error) {
	if err != nil {
		writeScreenError(w, r, err, ws.View())
		return
	}
	WriteJSON(w, http.StatusOK, ws.View())
}

func (h *handlers) getScreen(w http.ResponseWriter, r *http.Request) {
	token := h.cookie.read(r)
	view := h.screens.Entry(r.Context(), token)
	if view.Screen == screen.ScreenLogin && token != "" {
		h.cookie.clear(w)
	}
	WriteJSON(w, http.StatusOK, view)
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, "login", &req); err != nil {
		writeScreenError(w, r, err, screen.LoginScreen(""))
		return
	}

	token, ws, err := h.screens.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		msg := ""
		if ee := envelope(err); ee.Code == model.ErrLoginFailed {
			msg = ee.Message
			h.logRejected(r, "login", map[string]any{"login_id": req.LoginID, "password": req.Password}, err)
		}
		writeScreenError(w, r, err, screen.LoginScreen(msg))
		return
	}
	h.cookie.set(w, token, h.screens.TokenTTL())
	WriteJSON(w, http.StatusOK, ws.View())
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	respond(w, r, ws, ws.RequestLogout(r.Context()))
}

// endSession finishes a workspace whose logout was confirmed.
func (h *handlers) endSession(w http.ResponseWriter, r *http.Request, ws *screen.Workspace) {
	if err := h.screens.End(r.Context(), ws); err != nil {
		observability.RequestLogger(r.Context(), h.logger).Error("ending session failed", zap.Error(err))
	}
	h.cookie.clear(w)
	WriteJSON(w, http.StatusOK, screen.LoginScreen(""))
}
