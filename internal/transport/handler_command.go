package transport

import (
	"net/http"
)

// confirmModal accepts the open confirmation. Accepting the logout
// confirmation ends the session and answers with the login screen.
func (h *handlers) confirmModal(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	if err := ws.Confirm(r.Context()); err != nil {
		respond(w, r, ws, err)
		return
	}
	if ws.LoggedOut() {
		h.endSession(w, r, ws)
		return
	}
	respond(w, r, ws, nil)
}

func (h *handlers) cancelModal(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	respond(w, r, ws, ws.Cancel(r.Context()))
}

func (h *handlers) closeModal(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	respond(w, r, ws, ws.Close(r.Context()))
}
