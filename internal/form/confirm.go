package form

import "strings"

// NotEntered is shown for optional values the user left empty.
const NotEntered = "未入力"

// Line is one row of a confirmation summary. Group names the heading the row
// is listed under; empty rows sit at the top level.
type Line struct {
	Group string `json:"group,omitempty"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Payload is the human-readable summary shown before submission. It is for
// display only and is not the submitted data.
type Payload struct {
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// Builder accumulates summary rows in order.
type Builder struct {
	title string
	group string
	lines []Line
}

// NewBuilder starts a summary with the given dialog title.
func NewBuilder(title string) *Builder {
	return &Builder{title: title}
}

// Group starts a new heading; following rows belong to it.
func (b *Builder) Group(name string) *Builder {
	b.group = name
	return b
}

// Line adds a row with the value as entered.
func (b *Builder) Line(label, value string) *Builder {
	b.lines = append(b.lines, Line{Group: b.group, Label: label, Value: value})
	return b
}

// LineOr adds a row, substituting placeholder for a blank value.
func (b *Builder) LineOr(label, value, placeholder string) *Builder {
	if strings.TrimSpace(value) == "" {
		value = placeholder
	}
	return b.Line(label, value)
}

// When adds a row only when cond holds.
func (b *Builder) When(cond bool, label, value string) *Builder {
	if cond {
		b.Line(label, value)
	}
	return b
}

// Payload returns the finished summary.
func (b *Builder) Payload() Payload {
	return Payload{Title: b.title, Lines: append([]Line(nil), b.lines...)}
}

// Translate resolves a stored code to its display label. Unknown or empty
// codes render as NotEntered.
func Translate(table map[string]string, code string) string {
	if label, ok := table[code]; ok {
		return label
	}
	return NotEntered
}

// FileNames joins the names of the chosen files.
func FileNames(files []FileRef) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
