// Package modal holds the confirmation and message dialogs for one screen.
//
// A Manager retains at most one pending confirmation and at most one pending
// message. Opening a dialog of a kind that is already open replaces the
// previous request, callbacks included. Every retained callback is detached
// before it runs, so it fires at most once even if it opens another dialog.
// Callbacks receive the context of the action that dismissed the dialog.
package modal

import (
	"context"
	"errors"
)

// ErrNothingOpen is returned when a dialog action targets a dialog kind that
// is not currently open.
var ErrNothingOpen = errors.New("modal: no dialog of that kind is open")

// Default button labels.
const (
	DefaultConfirmLabel = "送信"
	DefaultCancelLabel  = "修正"
	DefaultCloseLabel   = "閉じる"
)

// Kind names a dialog kind.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindMessage      Kind = "message"
)

// Confirmation is a two-action dialog request. Body is rendered verbatim by
// the client.
type Confirmation struct {
	Title        string
	Body         any
	ConfirmLabel string
	CancelLabel  string
	OnConfirm    func(ctx context.Context)
	OnCancel     func(ctx context.Context)
}

// Message is a single-action dialog request.
type Message struct {
	Title   string
	Body    string
	IsError bool
	OnClose func(ctx context.Context)
}

// Manager owns the dialogs of a single screen. It is not safe for concurrent
// use; callers serialize access the same way they serialize form events.
type Manager struct {
	confirmation *Confirmation
	message      *Message
}

// NewManager returns a Manager with no dialogs open.
func NewManager() *Manager {
	return &Manager{}
}

// OpenConfirmation shows a confirmation dialog, discarding any confirmation
// that was still pending.
func (m *Manager) OpenConfirmation(c Confirmation) {
	if c.ConfirmLabel == "" {
		c.ConfirmLabel = DefaultConfirmLabel
	}
	if c.CancelLabel == "" {
		c.CancelLabel = DefaultCancelLabel
	}
	m.confirmation = &c
}

// OpenMessage shows a message dialog, discarding any message that was still
// pending.
func (m *Manager) OpenMessage(msg Message) {
	m.message = &msg
}

// Confirm closes the confirmation dialog and runs its confirm callback.
func (m *Manager) Confirm(ctx context.Context) error {
	c := m.confirmation
	if c == nil {
		return ErrNothingOpen
	}
	m.confirmation = nil
	if c.OnConfirm != nil {
		c.OnConfirm(ctx)
	}
	return nil
}

// Cancel closes the confirmation dialog and runs its cancel callback.
func (m *Manager) Cancel(ctx context.Context) error {
	c := m.confirmation
	if c == nil {
		return ErrNothingOpen
	}
	m.confirmation = nil
	if c.OnCancel != nil {
		c.OnCancel(ctx)
	}
	return nil
}

// Close closes the message dialog and runs its close callback.
func (m *Manager) Close(ctx context.Context) error {
	msg := m.message
	if msg == nil {
		return ErrNothingOpen
	}
	m.message = nil
	if msg.OnClose != nil {
		msg.OnClose(ctx)
	}
	return nil
}

// Dismiss drops every pending dialog without running callbacks. Used when the
// screen that owns the dialogs goes away.
func (m *Manager) Dismiss() {
	m.confirmation = nil
	m.message = nil
}

// IsOpen reports whether a dialog of the given kind is pending.
func (m *Manager) IsOpen(k Kind) bool {
	switch k {
	case KindConfirmation:
		return m.confirmation != nil
	case KindMessage:
		return m.message != nil
	}
	return false
}

// View is the rendering snapshot of the dialogs.
type View struct {
	Confirmation *ConfirmationView `json:"confirmation,omitempty"`
	Message      *MessageView      `json:"message,omitempty"`
}

// ConfirmationView renders a pending confirmation.
type ConfirmationView struct {
	Title        string `json:"title"`
	Body         any    `json:"body"`
	ConfirmLabel string `json:"confirm_label"`
	CancelLabel  string `json:"cancel_label"`
}

// MessageView renders a pending message.
type MessageView struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	IsError    bool   `json:"is_error"`
	CloseLabel string `json:"close_label"`
}

// View returns the current rendering snapshot.
func (m *Manager) View() View {
	var v View
	if c := m.confirmation; c != nil {
		v.Confirmation = &ConfirmationView{
			Title:        c.Title,
			Body:         c.Body,
			ConfirmLabel: c.ConfirmLabel,
			CancelLabel:  c.CancelLabel,
		}
	}
	if msg := m.message; msg != nil {
		v.Message = &MessageView{
			Title:      msg.Title,
			Body:       msg.Body,
			IsError:    msg.IsError,
			CloseLabel: DefaultCloseLabel,
		}
	}
	return v
}
