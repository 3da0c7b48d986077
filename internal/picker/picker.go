// Package picker describes the calendar and clock widgets attached to form
// fields. The widget itself lives in the client; this package owns its
// configuration, the set of attached fields (including fields added after the
// form was first rendered) and the server-side formatting and parsing that
// must agree with the widget.
package picker

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects what the widget lets the user pick.
type Mode string

const (
	ModeDate  Mode = "date"
	ModeTime  Mode = "time"
	ModeMonth Mode = "month"
)

// Widget format tokens.
const (
	FormatDate  = "Y/m/d"
	FormatTime  = "H:i"
	FormatMonth = "Y/m"
)

var tokenLayouts = strings.NewReplacer(
	"Y", "2006",
	"m", "01",
	"d", "02",
	"H", "15",
	"i", "04",
)

// Config is the configuration handed to the widget for one field.
type Config struct {
	Mode       Mode
	Format     string
	AllowInput bool
	Time24h    bool
	Min        *time.Time
	Max        *time.Time
}

// Layout returns the Go time layout equivalent to the widget format.
func (c Config) Layout() string {
	return tokenLayouts.Replace(c.Format)
}

// FormatTime renders t the way the widget would write it into the field.
func (c Config) FormatTime(t time.Time) string {
	return t.Format(c.Layout())
}

// Parse reads a field value written by the widget or typed by hand.
func (c Config) Parse(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(c.Layout(), strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("picker: %q does not match %s: %w", value, c.Format, err)
	}
	return t, nil
}

// Within reports whether t falls inside the configured bounds. Month pickers
// compare whole months.
func (c Config) Within(t time.Time) bool {
	lo, hi := c.Min, c.Max
	if c.Mode == ModeMonth {
		t = firstOfMonth(t)
		if lo != nil {
			v := firstOfMonth(*lo)
			lo = &v
		}
		if hi != nil {
			v := firstOfMonth(*hi)
			hi = &v
		}
	}
	if lo != nil && t.Before(*lo) {
		return false
	}
	if hi != nil && t.After(*hi) {
		return false
	}
	return true
}

// Date is a day picker that accepts manual entry.
func Date() Config {
	return Config{Mode: ModeDate, Format: FormatDate, AllowInput: true}
}

// DateFrom is a day picker whose earliest selectable day is the day of earliest.
func DateFrom(earliest time.Time) Config {
	c := Date()
	day := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, earliest.Location())
	c.Min = &day
	return c
}

// Clock is a 24 hour time-of-day picker.
func Clock() Config {
	return Config{Mode: ModeTime, Format: FormatTime, AllowInput: true, Time24h: true}
}

// Month is a month picker bounded from the first day of the month before now
// to the last day of the month after now.
func Month(now time.Time) Config {
	start := firstOfMonth(now).AddDate(0, -1, 0)
	end := firstOfMonth(now).AddDate(0, 2, -1)
	return Config{
		Mode:       ModeMonth,
		Format:     FormatMonth,
		AllowInput: true,
		Min:        &start,
		Max:        &end,
	}
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Attachment binds a widget configuration to a field.
type Attachment struct {
	Field      string `json:"field"`
	Mode       Mode   `json:"mode"`
	Format     string `json:"format"`
	AllowInput bool   `json:"allow_input"`
	Time24h    bool   `json:"time_24hr,omitempty"`
	Min        string `json:"min,omitempty"`
	Max        string `json:"max,omitempty"`
}

// Set is the ordered collection of fields a form has attached widgets to.
type Set struct {
	order   []string
	byField map[string]Config
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{byField: make(map[string]Config)}
}

// Attach binds cfg to field. Attaching again replaces the configuration but
// keeps the field's position.
func (s *Set) Attach(field string, cfg Config) {
	if _, ok := s.byField[field]; !ok {
		s.order = append(s.order, field)
	}
	s.byField[field] = cfg
}

// DetachPrefix removes every attachment whose field starts with prefix.
func (s *Set) DetachPrefix(prefix string) {
	kept := s.order[:0]
	for _, f := range s.order {
		if strings.HasPrefix(f, prefix) {
			delete(s.byField, f)
			continue
		}
		kept = append(kept, f)
	}
	s.order = kept
}

// Lookup returns the configuration attached to field.
func (s *Set) Lookup(field string) (Config, bool) {
	c, ok := s.byField[field]
	return c, ok
}

// Len returns the number of attached fields.
func (s *Set) Len() int {
	return len(s.order)
}

// All renders every attachment in attach order.
func (s *Set) All() []Attachment {
	out := make([]Attachment, 0, len(s.order))
	for _, f := range s.order {
		c := s.byField[f]
		a := Attachment{
			Field:      f,
			Mode:       c.Mode,
			Format:     c.Format,
			AllowInput: c.AllowInput,
			Time24h:    c.Time24h,
		}
		dayLayout := tokenLayouts.Replace(FormatDate)
		if c.Min != nil {
			a.Min = c.Min.Format(dayLayout)
		}
		if c.Max != nil {
			a.Max = c.Max.Format(dayLayout)
		}
		out = append(out, a)
	}
	return out
}
