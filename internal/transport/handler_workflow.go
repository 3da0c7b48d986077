package transport

import (
	"net/http"
)

type selectWorkflowRequest struct {
	WorkflowID string `json:"workflow_id"`
}

func (h *handlers) selectWorkflow(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	var req selectWorkflowRequest
	if err := h.decode(r, "selectWorkflow", &req); err != nil {
		respond(w, r, ws, err)
		return
	}
	respond(w, r, ws, ws.SelectWorkflow(r.Context(), req.WorkflowID))
}
