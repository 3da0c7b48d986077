package form

import (
	"github.com/pitabwire/shinsei/internal/picker"
	"github.com/pitabwire/shinsei/model"
)

// View is the render snapshot of a mounted form.
type View struct {
	WorkflowID string              `json:"workflow_id"`
	Title      string              `json:"title"`
	Phase      Phase               `json:"phase"`
	Dirty      bool                `json:"dirty"`
	Fields     []FieldView         `json:"fields"`
	Sections   []string            `json:"visible_sections"`
	Pickers    []picker.Attachment `json:"pickers"`
	Errors     []model.FieldError  `json:"errors,omitempty"`
	Extra      map[string]any      `json:"extra,omitempty"`
}

// FieldView renders one field.
type FieldView struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Input     InputType      `json:"input"`
	Section   string         `json:"section,omitempty"`
	Group     string         `json:"group,omitempty"`
	Options   []model.Option `json:"options,omitempty"`
	MaxLength int            `json:"max_length,omitempty"`
	Visible   bool           `json:"visible"`
	Value     string         `json:"value,omitempty"`
	Files     []FileRef      `json:"files,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// withResult copies inline error messages from r onto the matching fields.
func (v View) withResult(r Result) View {
	v.Errors = r.Errors()
	for i := range v.Fields {
		v.Fields[i].Error = r.Message(v.Fields[i].ID)
	}
	return v
}
