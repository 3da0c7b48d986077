// Package postal resolves Japanese postal codes to addresses through a
// zipcloud compatible HTTP API.
package postal

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMalformedCode is returned for input that is not seven digits once
	// normalized. No request is made for it.
	ErrMalformedCode = errors.New("postal: code must be seven digits")
	// ErrNotFound is returned when the service knows no address for a code.
	ErrNotFound = errors.New("postal: no address for code")
	// ErrUnavailable is returned when the service could not be reached or
	// answered with something unusable, including an open circuit breaker.
	ErrUnavailable = errors.New("postal: lookup service unavailable")
)

var codePattern = regexp.MustCompile(`^\d{7}$`)

var hyphens = strings.NewReplacer("-", "", "‐", "", "−", "", "ー", "")

// NormalizeCode folds full-width characters, strips hyphens and surrounding
// space, and checks the result is exactly seven ASCII digits.
func NormalizeCode(raw string) (string, error) {
	code := norm.NFKC.String(raw)
	code = hyphens.Replace(strings.TrimSpace(code))
	if !codePattern.MatchString(code) {
		return "", ErrMalformedCode
	}
	return code, nil
}

// Address is one resolved address, split the way the service returns it.
type Address struct {
	Code       string `json:"code"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Town       string `json:"town"`
}

// Full joins the address parts without separators.
func (a Address) Full() string {
	return a.Prefecture + a.City + a.Town
}

// Finder resolves a normalized postal code.
type Finder interface {
	Find(ctx context.Context, code string) (Address, error)
}
