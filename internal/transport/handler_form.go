package transport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/screen"
	"github.com/pitabwire/shinsei/model"
)

type inputFieldsRequest struct {
	Fields []screen.FieldInput `json:"fields"`
}

func (h *handlers) inputFields(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	var req inputFieldsRequest
	if err := h.decode(r, "inputFields", &req); err != nil {
		respond(w, r, ws, err)
		return
	}
	respond(w, r, ws, ws.Input(r.Context(), req.Fields))
}

// uploadFiles records the names, sizes and types of the uploaded parts.
// File content is discarded.
func (h *handlers) uploadFiles(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	field := chi.URLParam(r, "field")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 10); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond(w, r, ws, model.NewBadRequestError("Uploaded files are too large"))
			return
		}
		respond(w, r, ws, model.NewBadRequestError("Upload could not be read"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	refs := make([]form.FileRef, 0, len(headers))
	for _, fh := range headers {
		refs = append(refs, form.FileRef{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}
	respond(w, r, ws, ws.AttachFiles(r.Context(), field, refs))
}

func (h *handlers) addRoute(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	respond(w, r, ws, ws.AddRoute(r.Context()))
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFrom(r.Context())
	respond(w, r, ws, ws.Submit(r.Context()))
}
