// Package auth checks login credentials against the single configured pair.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/pitabwire/shinsei/internal/config"
)

// Outcome is the result of a credential check.
type Outcome int

const (
	OK Outcome = iota
	BothEmpty
	LoginIDEmpty
	PasswordEmpty
	PasswordInvalid
	LoginIDInvalid
	BothInvalid
)

var messages = map[Outcome]string{
	BothEmpty:       "ログインIDとパスワードを入力してください。",
	LoginIDEmpty:    "ログインIDが入力されていません。ログインIDを入力してください。",
	PasswordEmpty:   "パスワードが入力されていません。パスワードを入力してください。",
	PasswordInvalid: "パスワードが無効です。",
	LoginIDInvalid:  "ログインIDが無効です。有効なログインIDを入力してください。",
	BothInvalid:     "ログインIDとパスワードの両方が無効です。",
}

// Message returns the text shown for a failed outcome, or "" for OK.
func (o Outcome) Message() string {
	return messages[o]
}

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case BothEmpty:
		return "both_empty"
	case LoginIDEmpty:
		return "login_id_empty"
	case PasswordEmpty:
		return "password_empty"
	case PasswordInvalid:
		return "password_invalid"
	case LoginIDInvalid:
		return "login_id_invalid"
	case BothInvalid:
		return "both_invalid"
	}
	return "unknown"
}

// Checker compares trimmed inputs with the configured pair.
type Checker struct {
	loginID  string
	password string
	userID   string
}

// NewChecker builds a Checker from the auth config.
func NewChecker(cfg config.AuthConfig) *Checker {
	return &Checker{loginID: cfg.LoginID, password: cfg.Password, userID: cfg.UserID}
}

// UserID is the directory id a successful login maps to.
func (c *Checker) UserID() string {
	return c.userID
}

// Check classifies a login attempt. Every combination of empty and wrong
// inputs has its own outcome.
func (c *Checker) Check(loginID, password string) Outcome {
	id := strings.TrimSpace(loginID)
	pw := strings.TrimSpace(password)

	switch {
	case id == "" && pw == "":
		return BothEmpty
	case id == "":
		return LoginIDEmpty
	case pw == "":
		return PasswordEmpty
	}

	idOK := id == c.loginID
	pwOK := subtle.ConstantTimeCompare([]byte(pw), []byte(c.password)) == 1
	switch {
	case idOK && pwOK:
		return OK
	case idOK:
		return PasswordInvalid
	case pwOK:
		return LoginIDInvalid
	default:
		return BothInvalid
	}
}
