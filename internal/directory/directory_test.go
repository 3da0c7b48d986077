package directory

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pitabwire/shinsei/model"
)

type failingLookup struct{}

func (failingLookup) FindUser(context.Context, string) (model.User, error) {
	return model.User{}, errors.New("connection reset")
}

func TestBuiltin_FindUser(t *testing.T) {
	d := Builtin()
	u, err := d.FindUser(context.Background(), "user123")
	if err != nil {
		t.Fatalf("FindUser() error = %v", err)
	}
	if u.DisplayName() != "田中 太郎" {
		t.Errorf("DisplayName() = %q, want 田中 太郎", u.DisplayName())
	}
	if u.ManagerID == nil || *u.ManagerID != "manager456" {
		t.Errorf("ManagerID = %v, want manager456", u.ManagerID)
	}

	_, err = d.FindUser(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindUser(nobody) error = %v, want ErrNotFound", err)
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		name        string
		lookup      Lookup
		userID      string
		wantUser    string
		wantManager string
	}{
		{"with manager", Builtin(), "user123", "田中 太郎", "鈴木 一郎"},
		{"other report", Builtin(), "user789", "佐藤 花子", "鈴木 一郎"},
		{"no manager", Builtin(), "manager456", "鈴木 一郎", NoManager},
		{"missing user", Builtin(), "nobody", UserNotFound, ManagerNotFound},
		{"lookup error", failingLookup{}, "user123", LoadFailed, LoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Header(context.Background(), tt.lookup, tt.userID, zap.NewNop())
			if got.UserName != tt.wantUser {
				t.Errorf("UserName = %q, want %q", got.UserName, tt.wantUser)
			}
			if got.ManagerName != tt.wantManager {
				t.Errorf("ManagerName = %q, want %q", got.ManagerName, tt.wantManager)
			}
		})
	}
}

func TestHeader_unresolved_manager_warns(t *testing.T) {
	d, err := Load("testdata/users.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	core, logs := observer.New(zap.WarnLevel)

	got := Header(context.Background(), d, "user001", zap.New(core))

	if got.UserName != "山田 次郎" {
		t.Errorf("UserName = %q", got.UserName)
	}
	if got.ManagerName != ManagerNotFound {
		t.Errorf("ManagerName = %q, want %q", got.ManagerName, ManagerNotFound)
	}
	if logs.FilterMessage("manager not in directory").Len() != 1 {
		t.Errorf("expected one warning, got %v", logs.All())
	}
}

func TestLoad(t *testing.T) {
	d, err := Load("")
	if err != nil || d.Len() != 3 {
		t.Fatalf("Load(\"\") = %d users, %v; want builtin 3", d.Len(), err)
	}
	d, err = Load("testdata/users.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
	if _, err := Load("testdata/missing.yaml"); err == nil {
		t.Error("Load() with missing file should return error")
	}
}
