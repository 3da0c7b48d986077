// Package transport contains the HTTP router, middleware chain, and all
// request handlers for the screen API.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/internal/screen"
	"github.com/pitabwire/shinsei/model"
)

// statusForCode maps ErrorEnvelope codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrBadRequest:         http.StatusBadRequest,
	model.ErrUnauthorized:       http.StatusUnauthorized,
	model.ErrNotFound:           http.StatusNotFound,
	model.ErrConflict:           http.StatusConflict,
	model.ErrValidationError:    http.StatusUnprocessableEntity,
	model.ErrInvalidTransition:  http.StatusConflict,
	model.ErrInternalError:      http.StatusInternalServerError,
	model.ErrBackendUnavailable: http.StatusBadGateway,
	model.ErrLoginFailed:        http.StatusUnauthorized,
	model.ErrSessionNotPresent:  http.StatusUnauthorized,
	model.ErrRouteLimit:         http.StatusConflict,
	model.ErrNoActiveForm:       http.StatusConflict,
	model.ErrNoPendingModal:     http.StatusConflict,
	model.ErrLookupInProgress:   http.StatusConflict,
	model.ErrUnknownWorkflow:    http.StatusNotFound,
	model.ErrUnknownFormField:   http.StatusBadRequest,
}

type errorResponse struct {
	Error  *model.ErrorEnvelope `json:"error"`
	Screen *screen.View         `json:"screen,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// WriteError writes an ErrorEnvelope as a JSON response with the correct
// HTTP status code. If err is not an *ErrorEnvelope, a generic 500 is returned.
func WriteError(w http.ResponseWriter, err error) {
	writeFailure(w, envelope(err), nil)
}

// WriteValidationError writes a 422 error response with field-level details.
func WriteValidationError(w http.ResponseWriter, details []model.FieldError) {
	WriteError(w, model.NewValidationError(details))
}

// writeScreenError writes err together with the screen it left behind, so
// the client can redraw inline messages and dialogs from one response.
func writeScreenError(w http.ResponseWriter, r *http.Request, err error, view screen.View) {
	ee := envelope(err)
	ee.TraceID = observability.TraceIDFromContext(r.Context())
	writeFailure(w, ee, &view)
}

func writeFailure(w http.ResponseWriter, ee *model.ErrorEnvelope, view *screen.View) {
	status := statusForCode[ee.Code]
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, errorResponse{Error: ee, Screen: view})
}

func envelope(err error) *model.ErrorEnvelope {
	var ee *model.ErrorEnvelope
	if errors.As(err, &ee) {
		return ee
	}
	return model.NewInternalError()
}
