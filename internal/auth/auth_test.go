package auth

import (
	"testing"

	"github.com/pitabwire/shinsei/internal/config"
)

func TestChecker_Check(t *testing.T) {
	c := NewChecker(config.AuthConfig{LoginID: "jqit@gmail.com", Password: "password", UserID: "user123"})

	tests := []struct {
		name     string
		id, pw   string
		want     Outcome
		wantText string
	}{
		{"valid", "jqit@gmail.com", "password", OK, ""},
		{"valid with spaces", "  jqit@gmail.com ", " password\t", OK, ""},
		{"both empty", "", "  ", BothEmpty, "ログインIDとパスワードを入力してください。"},
		{"id empty", "", "password", LoginIDEmpty, "ログインIDが入力されていません。ログインIDを入力してください。"},
		{"password empty", "jqit@gmail.com", "", PasswordEmpty, "パスワードが入力されていません。パスワードを入力してください。"},
		{"password wrong", "jqit@gmail.com", "nope", PasswordInvalid, "パスワードが無効です。"},
		{"id wrong", "someone@example.com", "password", LoginIDInvalid, "ログインIDが無効です。有効なログインIDを入力してください。"},
		{"both wrong", "someone@example.com", "nope", BothInvalid, "ログインIDとパスワードの両方が無効です。"},
	}
	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Check(tt.id, tt.pw)
			if got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
			if got.Message() != tt.wantText {
				t.Errorf("Message() = %q, want %q", got.Message(), tt.wantText)
			}
		})
		if tt.wantText != "" {
			seen[tt.wantText] = true
		}
	}
	if len(seen) != 6 {
		t.Errorf("distinct failure messages = %d, want 6", len(seen))
	}
	if c.UserID() != "user123" {
		t.Errorf("UserID() = %q", c.UserID())
	}
}
