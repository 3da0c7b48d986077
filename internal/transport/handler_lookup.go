package transport

import (
	"net/http"
)

// searchAddress blocks until the postal lookup settles or the request
// deadline passes.
func (h *handlers) searchAddress(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	respond(w, r, ws, ws.SearchAddress(r.Context()))
}
