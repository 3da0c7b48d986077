// Package directory resolves users and their managers for the screen header.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pitabwire/shinsei/model"
)

// ErrNotFound is returned when no user has the requested id.
var ErrNotFound = errors.New("directory: user not found")

// Header fallback labels.
const (
	UserNotFound    = "ログインユーザー情報が見つかりません"
	ManagerNotFound = "管理営業情報が見つかりません"
	NoManager       = "担当管理営業はいません"
	LoadFailed      = "情報の読み込みに失敗しました"
)

// Lookup finds a user by id.
type Lookup interface {
	FindUser(ctx context.Context, id string) (model.User, error)
}

// Static is an in-memory Lookup.
type Static struct {
	users map[string]model.User
}

// NewStatic indexes users by id.
func NewStatic(users []model.User) *Static {
	s := &Static{users: make(map[string]model.User, len(users))}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Builtin returns the mock directory used when no file is configured.
func Builtin() *Static {
	manager := "manager456"
	return NewStatic([]model.User{
		{ID: "user123", FirstName: "太郎", LastName: "田中", ManagerID: &manager},
		{ID: "manager456", FirstName: "一郎", LastName: "鈴木"},
		{ID: "user789", FirstName: "花子", LastName: "佐藤", ManagerID: &manager},
	})
}

// Load reads a directory file, or returns Builtin when path is empty.
func Load(path string) (*Static, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f model.DirectoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return NewStatic(f.Users), nil
}

// FindUser implements Lookup.
func (s *Static) FindUser(_ context.Context, id string) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return u, nil
}

// Len returns the number of users.
func (s *Static) Len() int {
	return len(s.users)
}

// HeaderInfo is what the workflow screen shows about the logged-in user.
type HeaderInfo struct {
	UserName    string `json:"user_name"`
	ManagerName string `json:"manager_name"`
}

// Header resolves the user and manager names for userID. Missing records
// degrade to fallback labels rather than failing.
func Header(ctx context.Context, l Lookup, userID string, logger *zap.Logger) HeaderInfo {
	u, err := l.FindUser(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		return HeaderInfo{UserName: UserNotFound, ManagerName: ManagerNotFound}
	case err != nil:
		logger.Error("directory lookup failed", zap.String("user_id", userID), zap.Error(err))
		return HeaderInfo{UserName: LoadFailed, ManagerName: LoadFailed}
	}

	info := HeaderInfo{UserName: u.DisplayName()}
	if u.ManagerID == nil || *u.ManagerID == "" {
		info.ManagerName = NoManager
		return info
	}

	m, err := l.FindUser(ctx, *u.ManagerID)
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Warn("manager not in directory",
			zap.String("user_id", userID),
			zap.String("manager_id", *u.ManagerID),
		)
		info.ManagerName = ManagerNotFound
	case err != nil:
		logger.Error("directory lookup failed", zap.String("user_id", *u.ManagerID), zap.Error(err))
		info.ManagerName = LoadFailed
	default:
		info.ManagerName = m.DisplayName()
	}
	return info
}
