// Package form is the headless workflow form engine: raw field state, rule
// based validation, conditional sections, confirmation summaries and the
// submit lifecycle shared by every workflow type.
package form

import (
	"maps"
	"strings"
)

// FileRef describes a file chosen for a file field. The content is not kept.
type FileRef struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// State maps field ids to raw values. It is the single source of truth for a
// form; visibility and rendering are derived from it.
type State struct {
	values map[string]string
	files  map[string][]FileRef
	dirty  bool
}

// NewState returns an empty, untouched State.
func NewState() *State {
	return &State{
		values: make(map[string]string),
		files:  make(map[string][]FileRef),
	}
}

// Value returns the raw value of field.
func (s *State) Value(field string) string {
	return s.values[field]
}

// Trimmed returns the value of field with surrounding whitespace removed.
func (s *State) Trimmed(field string) string {
	return strings.TrimSpace(s.values[field])
}

// Set stores a user-entered value and marks the state dirty.
func (s *State) Set(field, value string) {
	s.values[field] = value
	s.dirty = true
}

// Files returns the files chosen for field.
func (s *State) Files(field string) []FileRef {
	return s.files[field]
}

// SetFiles replaces the files chosen for field and marks the state dirty.
func (s *State) SetFiles(field string, files []FileRef) {
	if len(files) == 0 {
		delete(s.files, field)
	} else {
		s.files[field] = append([]FileRef(nil), files...)
	}
	s.dirty = true
}

// Clear drops the value and files of field and reports whether there was
// anything to drop.
func (s *State) Clear(field string) bool {
	_, hasValue := s.values[field]
	_, hasFiles := s.files[field]
	delete(s.values, field)
	delete(s.files, field)
	return hasValue || hasFiles
}

// DeletePrefix drops every value and file list whose field id starts with
// prefix.
func (s *State) DeletePrefix(prefix string) {
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			delete(s.values, k)
		}
	}
	for k := range s.files {
		if strings.HasPrefix(k, prefix) {
			delete(s.files, k)
		}
	}
}

// Dirty reports whether any field was edited since the last reset.
func (s *State) Dirty() bool {
	return s.dirty
}

// Reset discards all values and files, then applies defaults. The result is
// untouched.
func (s *State) Reset(defaults map[string]string) {
	s.values = make(map[string]string, len(defaults))
	maps.Copy(s.values, defaults)
	s.files = make(map[string][]FileRef)
	s.dirty = false
}

// Values returns a copy of every stored value.
func (s *State) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	maps.Copy(out, s.values)
	return out
}
