package form

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/pitabwire/shinsei/model"
)

// RuleKind identifies what a rule checks. It doubles as the FieldError code.
type RuleKind string

const (
	KindRequired            RuleKind = "REQUIRED"
	KindPattern             RuleKind = "PATTERN"
	KindLengthBounds        RuleKind = "LENGTH"
	KindFileRequired        RuleKind = "FILE_REQUIRED"
	KindConditionalRequired RuleKind = "CONDITIONAL_REQUIRED"
	KindOneOf               RuleKind = "ONE_OF"
	KindCheck               RuleKind = "INVALID"
)

// Rule is one check against one field. Rules other than the required kinds
// pass on an empty value so optional fields are only checked once filled.
type Rule struct {
	Kind    RuleKind
	Message string
	valid   func(s *State, field string) bool
}

// Passes reports whether the rule holds for field in s.
func (r Rule) Passes(s *State, field string) bool {
	return r.valid(s, field)
}

// Required fails when the trimmed value is empty.
func Required(msg string) Rule {
	return Rule{Kind: KindRequired, Message: msg, valid: func(s *State, f string) bool {
		return s.Trimmed(f) != ""
	}}
}

// Pattern fails when the trimmed, non-empty value does not match expr.
func Pattern(expr, msg string) Rule {
	re := regexp.MustCompile(expr)
	return Rule{Kind: KindPattern, Message: msg, valid: func(s *State, f string) bool {
		v := s.Trimmed(f)
		return v == "" || re.MatchString(v)
	}}
}

// Length fails when a non-empty value has fewer than lo or more than hi
// characters. A bound of zero is not checked.
func Length(lo, hi int, msg string) Rule {
	return Rule{Kind: KindLengthBounds, Message: msg, valid: func(s *State, f string) bool {
		v := s.Value(f)
		if v == "" {
			return true
		}
		n := utf8.RuneCountInString(v)
		return (lo == 0 || n >= lo) && (hi == 0 || n <= hi)
	}}
}

// MaxLength is Length with only an upper bound.
func MaxLength(hi int, msg string) Rule {
	return Length(0, hi, msg)
}

// FileRequired fails when no file was chosen.
func FileRequired(msg string) Rule {
	return Rule{Kind: KindFileRequired, Message: msg, valid: func(s *State, f string) bool {
		return len(s.Files(f)) > 0
	}}
}

// RequiredWhen is Required, enforced only while discriminator holds value.
func RequiredWhen(discriminator, value, msg string) Rule {
	return Rule{Kind: KindConditionalRequired, Message: msg, valid: func(s *State, f string) bool {
		if s.Value(discriminator) != value {
			return true
		}
		return s.Trimmed(f) != ""
	}}
}

// OneOf fails when a non-empty value is not one of the option values.
func OneOf(options []model.Option, msg string) Rule {
	allowed := make([]string, len(options))
	for i, o := range options {
		allowed[i] = o.Value
	}
	return Rule{Kind: KindOneOf, Message: msg, valid: func(s *State, f string) bool {
		v := s.Value(f)
		return v == "" || slices.Contains(allowed, v)
	}}
}

// Check fails when fn rejects a non-empty value.
func Check(msg string, fn func(value string) bool) Rule {
	return Rule{Kind: KindCheck, Message: msg, valid: func(s *State, f string) bool {
		v := strings.TrimSpace(s.Value(f))
		return v == "" || fn(v)
	}}
}

// FieldRules is the ordered rule list of one field. Section names the
// optional section the field lives in; empty means always visible.
type FieldRules struct {
	Field   string
	Section string
	Rules   []Rule
}

// RuleSet holds a form's field rules in declaration order.
type RuleSet []FieldRules

// Validate runs every field's rules. Each field reports at most one error,
// the first rule it fails; fields in hidden sections are skipped.
func (rs RuleSet) Validate(s *State, visible func(section string) bool) Result {
	var res Result
	for _, fr := range rs {
		if fr.Section != "" && visible != nil && !visible(fr.Section) {
			continue
		}
		for _, r := range fr.Rules {
			if !r.Passes(s, fr.Field) {
				res.errs = append(res.errs, model.FieldError{
					Field:   fr.Field,
					Code:    string(r.Kind),
					Message: r.Message,
				})
				break
			}
		}
	}
	return res
}

// Result maps fields to their validation error, in declaration order.
type Result struct {
	errs []model.FieldError
}

// OK reports whether no field failed.
func (r Result) OK() bool {
	return len(r.errs) == 0
}

// Errors returns the failed fields in declaration order.
func (r Result) Errors() []model.FieldError {
	return slices.Clone(r.errs)
}

// Message returns the error message for field, or "" when it passed.
func (r Result) Message(field string) string {
	for _, e := range r.errs {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Fields returns the ids of failed fields in declaration order.
func (r Result) Fields() []string {
	out := make([]string, len(r.errs))
	for i, e := range r.errs {
		out[i] = e.Field
	}
	return out
}
