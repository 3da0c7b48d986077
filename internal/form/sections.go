package form

import (
	"slices"
	"strings"
)

// Sections tracks which optional sections of a form are shown. A section
// that was never declared is treated as always visible.
type Sections struct {
	declared []string
	shown    map[string]bool
}

// NewSections declares the given optional sections, all hidden.
func NewSections(declared ...string) *Sections {
	s := &Sections{shown: make(map[string]bool)}
	for _, d := range declared {
		s.Declare(d)
	}
	return s
}

// Declare adds an optional section, hidden. Declaring twice is a no-op.
func (s *Sections) Declare(name string) {
	if slices.Contains(s.declared, name) {
		return
	}
	s.declared = append(s.declared, name)
}

// RemovePrefix forgets every declared section whose name starts with prefix.
func (s *Sections) RemovePrefix(prefix string) {
	s.declared = slices.DeleteFunc(s.declared, func(n string) bool {
		if strings.HasPrefix(n, prefix) {
			delete(s.shown, n)
			return true
		}
		return false
	})
}

// Show reveals the named sections.
func (s *Sections) Show(names ...string) {
	for _, n := range names {
		s.shown[n] = true
	}
}

// Hide hides the named sections.
func (s *Sections) Hide(names ...string) {
	for _, n := range names {
		delete(s.shown, n)
	}
}

// HideAll hides every declared section.
func (s *Sections) HideAll() {
	clear(s.shown)
}

// Visible reports whether name is shown. Undeclared names are visible.
func (s *Sections) Visible(name string) bool {
	if name == "" || !slices.Contains(s.declared, name) {
		return true
	}
	return s.shown[name]
}

// Declared returns the declared sections in declaration order.
func (s *Sections) Declared() []string {
	return slices.Clone(s.declared)
}

// VisibleSet returns the shown declared sections in declaration order.
func (s *Sections) VisibleSet() []string {
	var out []string
	for _, d := range s.declared {
		if s.shown[d] {
			out = append(out, d)
		}
	}
	return out
}

// Discriminator maps the value of a radio or select field to the sections it
// reveals. Values without an entry reveal nothing.
type Discriminator struct {
	Field  string
	Reveal map[string][]string
}

// Apply hides every section the discriminator governs, then reveals the
// sections mapped from value.
func (d Discriminator) Apply(s *Sections, value string) {
	for _, names := range d.Reveal {
		s.Hide(names...)
	}
	s.Show(d.Reveal[value]...)
}

// Governs reports whether field is the discriminator's field.
func (d Discriminator) Governs(field string) bool {
	return field == d.Field
}

// Presence reveals Section while Field holds non-blank text and hides it
// again once the text is cleared.
type Presence struct {
	Field   string
	Section string
}

// Apply re-evaluates the rule for the field's current value.
func (p Presence) Apply(s *Sections, value string) {
	if strings.TrimSpace(value) != "" {
		s.Show(p.Section)
		return
	}
	s.Hide(p.Section)
}
