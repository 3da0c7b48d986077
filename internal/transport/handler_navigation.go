package transport

import (
	"net/http"

	"github.com/pitabwire/shinsei/internal/catalog"
	"github.com/pitabwire/shinsei/internal/contract"
	"github.com/pitabwire/shinsei/model"
)

type catalogResponse struct {
	Workflows []model.Option `json:"workflows"`
	Checksum  string         `json:"checksum"`
}

func handleCatalog(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, catalogResponse{Workflows: reg.Options(), Checksum: reg.Checksum()})
	}
}

func handleContract(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(contract.Document())
}
