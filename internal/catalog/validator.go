package catalog

import (
	"fmt"

	"github.com/pitabwire/shinsei/model"
)

// VError describes a single problem in a catalog.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks that the catalog is non-empty, ids are unique, names are
// present and every id can be mounted. hasController may be nil to skip the
// last check.
func Validate(f model.CatalogFile, hasController func(id string) bool) []VError {
	var errs []VError
	if len(f.Workflows) == 0 {
		errs = append(errs, VError{Path: "workflows", Code: "REQUIRED", Message: "at least one workflow is required"})
	}

	seen := make(map[string]bool, len(f.Workflows))
	for i, w := range f.Workflows {
		p := fmt.Sprintf("workflows[%d]", i)
		if w.ID == "" {
			errs = append(errs, VError{Path: p + ".id", Code: "REQUIRED", Message: "id is required"})
			continue
		}
		if seen[w.ID] {
			errs = append(errs, VError{Path: p + ".id", Code: "DUPLICATE", Message: fmt.Sprintf("id %q is declared twice", w.ID)})
		}
		seen[w.ID] = true
		if w.DisplayName == "" {
			errs = append(errs, VError{Path: p + ".display_name", Code: "REQUIRED", Message: "display_name is required"})
		}
		if hasController != nil && !hasController(w.ID) {
			errs = append(errs, VError{Path: p + ".id", Code: "NO_CONTROLLER", Message: fmt.Sprintf("no form controller is registered for %q", w.ID)})
		}
	}
	return errs
}
