package form

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/pitabwire/shinsei/internal/picker"
	"github.com/pitabwire/shinsei/model"
)

var (
	// ErrUnknownField is returned for input addressed to a field the form
	// does not have.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrFieldType is returned when text is sent to a file field or files to
	// a text field.
	ErrFieldType = errors.New("form: field does not accept this input")
)

// InputType is how a field is rendered and what input it accepts.
type InputType string

const (
	InputText     InputType = "text"
	InputTextarea InputType = "textarea"
	InputNumber   InputType = "number"
	InputDate     InputType = "date"
	InputTime     InputType = "time"
	InputMonth    InputType = "month"
	InputSelect   InputType = "select"
	InputRadio    InputType = "radio"
	InputFile     InputType = "file"
)

// Field declares one form field. Fields are listed in display order, which
// is also the order validation errors are reported in.
type Field struct {
	ID        string
	Label     string
	Input     InputType
	Section   string
	Group     string
	Options   []model.Option
	MaxLength int
	Default   string
	Rules     []Rule
}

// Controller is the contract every workflow form implements. Controllers are
// headless: all rendering is derived from View.
type Controller interface {
	ID() string
	Title() string
	// Initialize puts the form into its default state.
	Initialize(now time.Time)
	// Input records a user edit and re-evaluates section visibility.
	Input(field, value string) error
	AttachFiles(field string, files []FileRef) error
	Validate() Result
	BuildConfirmation() Payload
	// Reset discards all input, equivalent to a fresh Initialize.
	Reset(now time.Time)
	SuccessMessage() string
	// Snapshot returns the values and files of visible fields only.
	Snapshot() (map[string]string, map[string][]FileRef)
	Dirty() bool
	View() View
}

// Definition is the static description a Base is built from.
type Definition struct {
	ID             string
	Title          string
	SuccessMessage string
	Fields         []Field
	Sections       []string
	Discriminators []Discriminator
	Presences      []Presence
	// Defaults supplies values that depend on the current time. They are
	// applied over Field.Default.
	Defaults func(now time.Time) map[string]string
	// Pickers attaches picker widgets on every Initialize and Reset.
	Pickers func(now time.Time, set *picker.Set)
}

// Base implements the parts of Controller that are identical across
// workflow types. Workflow controllers embed it and add BuildConfirmation
// plus any workflow specific behavior.
type Base struct {
	def      Definition
	fields   []Field
	State    *State
	Sections *Sections
	Pickers  *picker.Set
}

// NewBase builds an uninitialized Base from def.
func NewBase(def Definition) *Base {
	b := &Base{
		def:      def,
		fields:   slices.Clone(def.Fields),
		State:    NewState(),
		Sections: NewSections(def.Sections...),
		Pickers:  picker.NewSet(),
	}
	return b
}

func (b *Base) ID() string             { return b.def.ID }
func (b *Base) Title() string          { return b.def.Title }
func (b *Base) SuccessMessage() string { return b.def.SuccessMessage }
func (b *Base) Dirty() bool            { return b.State.Dirty() }

// Initialize resets state to defaults, re-applies section rules and
// re-attaches pickers.
func (b *Base) Initialize(now time.Time) {
	defaults := make(map[string]string)
	for _, f := range b.fields {
		if f.Default != "" {
			defaults[f.ID] = f.Default
		}
	}
	if b.def.Defaults != nil {
		maps.Copy(defaults, b.def.Defaults(now))
	}
	b.State.Reset(defaults)
	b.Sections.HideAll()
	for _, d := range b.def.Discriminators {
		d.Apply(b.Sections, b.State.Value(d.Field))
	}
	for _, p := range b.def.Presences {
		p.Apply(b.Sections, b.State.Value(p.Field))
	}
	b.Pickers = picker.NewSet()
	if b.def.Pickers != nil {
		b.def.Pickers(now, b.Pickers)
	}
}

// Reset is Initialize.
func (b *Base) Reset(now time.Time) {
	b.Initialize(now)
}

// Field returns the declaration of id.
func (b *Base) Field(id string) (Field, bool) {
	for _, f := range b.fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Fields returns the current field declarations in display order.
func (b *Base) Fields() []Field {
	return slices.Clone(b.fields)
}

// AddFields appends dynamically created fields, such as a repeatable block.
func (b *Base) AddFields(fields ...Field) {
	b.fields = append(b.fields, fields...)
}

// AddPresence registers a presence rule for a dynamically created section
// and evaluates it once.
func (b *Base) AddPresence(p Presence) {
	b.Sections.Declare(p.Section)
	b.def.Presences = append(b.def.Presences, p)
	p.Apply(b.Sections, b.State.Value(p.Field))
}

// RemoveGroup drops every field, value, section, picker and presence rule
// whose id starts with prefix.
func (b *Base) RemoveGroup(prefix string) {
	b.fields = slices.DeleteFunc(b.fields, func(f Field) bool {
		return strings.HasPrefix(f.ID, prefix)
	})
	b.def.Presences = slices.DeleteFunc(b.def.Presences, func(p Presence) bool {
		return strings.HasPrefix(p.Field, prefix)
	})
	b.State.DeletePrefix(prefix)
	b.Sections.RemovePrefix(prefix)
	b.Pickers.DetachPrefix(prefix)
}

// RestoreFields drops every field that was added after construction.
func (b *Base) RestoreFields() {
	b.fields = slices.Clone(b.def.Fields)
}

// Input stores value for field and re-evaluates the section rules the field
// drives.
func (b *Base) Input(field, value string) error {
	f, ok := b.Field(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if f.Input == InputFile {
		return fmt.Errorf("%w: %q takes files", ErrFieldType, field)
	}
	b.State.Set(field, value)
	b.reevaluate([]string{field})
	return nil
}

// reevaluate re-applies the section rules driven by the changed fields.
// Fields of a section that becomes hidden are cleared, which can hide
// further sections.
func (b *Base) reevaluate(changed []string) {
	for len(changed) > 0 {
		before := b.Sections.VisibleSet()
		for _, id := range changed {
			b.applyRules(id)
		}
		var cleared []string
		for _, f := range b.fields {
			if f.Section == "" || !slices.Contains(before, f.Section) || b.Sections.Visible(f.Section) {
				continue
			}
			if b.State.Clear(f.ID) {
				cleared = append(cleared, f.ID)
			}
		}
		changed = cleared
	}
}

func (b *Base) applyRules(field string) {
	value := b.State.Value(field)
	for _, d := range b.def.Discriminators {
		if d.Governs(field) {
			d.Apply(b.Sections, value)
		}
	}
	for _, p := range b.def.Presences {
		if p.Field == field {
			p.Apply(b.Sections, value)
		}
	}
}

// AttachFiles replaces the files chosen for a file field.
func (b *Base) AttachFiles(field string, files []FileRef) error {
	f, ok := b.Field(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if f.Input != InputFile {
		return fmt.Errorf("%w: %q takes text", ErrFieldType, field)
	}
	b.State.SetFiles(field, files)
	return nil
}

// Visible reports whether the field's section is shown.
func (b *Base) Visible(f Field) bool {
	return b.Sections.Visible(f.Section)
}

// RuleSet returns the rules of every field in display order.
func (b *Base) RuleSet() RuleSet {
	rs := make(RuleSet, 0, len(b.fields))
	for _, f := range b.fields {
		if len(f.Rules) == 0 {
			continue
		}
		rs = append(rs, FieldRules{Field: f.ID, Section: f.Section, Rules: f.Rules})
	}
	return rs
}

// Validate runs every rule of every visible field.
func (b *Base) Validate() Result {
	return b.RuleSet().Validate(b.State, b.Sections.Visible)
}

// Snapshot returns the values and files of visible fields.
func (b *Base) Snapshot() (map[string]string, map[string][]FileRef) {
	values := make(map[string]string)
	files := make(map[string][]FileRef)
	for _, f := range b.fields {
		if !b.Visible(f) {
			continue
		}
		if f.Input == InputFile {
			if fs := b.State.Files(f.ID); len(fs) > 0 {
				files[f.ID] = slices.Clone(fs)
			}
			continue
		}
		values[f.ID] = b.State.Value(f.ID)
	}
	return values, files
}

// Label returns the option label for the current value of field.
func (b *Base) Label(field string) string {
	f, _ := b.Field(field)
	v := b.State.Value(field)
	for _, o := range f.Options {
		if o.Value == v {
			return o.Label
		}
	}
	return NotEntered
}

// View renders the form.
func (b *Base) View() View {
	v := View{
		WorkflowID: b.def.ID,
		Title:      b.def.Title,
		Sections:   b.Sections.VisibleSet(),
		Pickers:    b.Pickers.All(),
		Dirty:      b.State.Dirty(),
	}
	for _, f := range b.fields {
		fv := FieldView{
			ID:        f.ID,
			Label:     f.Label,
			Input:     f.Input,
			Section:   f.Section,
			Group:     f.Group,
			Options:   f.Options,
			MaxLength: f.MaxLength,
			Visible:   b.Visible(f),
		}
		if f.Input == InputFile {
			fv.Files = b.State.Files(f.ID)
		} else {
			fv.Value = b.State.Value(f.ID)
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}
