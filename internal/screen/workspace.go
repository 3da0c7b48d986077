// Package screen routes a browser session between the login screen and the
// workflow screen, and hosts the mounted form of each logged-in session.
package screen

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/catalog"
	"github.com/pitabwire/shinsei/internal/directory"
	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/modal"
	"github.com/pitabwire/shinsei/internal/postal"
	"github.com/pitabwire/shinsei/internal/request"
	"github.com/pitabwire/shinsei/model"
)

// Logout dialog texts.
const (
	LogoutTitle        = "ログアウト"
	LogoutBody         = "ログアウトしますか？"
	LogoutConfirmLabel = "ログアウト"
	LogoutCancelLabel  = "キャンセル"
)

// Recorder receives screen level measurements.
type Recorder interface {
	RecordLogin(outcome string)
	RecordWorkflowMount(workflowID string)
	RecordValidationFailure(workflowID, field string)
	RecordSubmission(workflowID, outcome string, d time.Duration)
	SetActiveWorkspaces(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string) {}
func (nopRecorder) RecordWorkflowMount(string) {}
func (nopRecorder) RecordValidationFailure(string, string) {}
func (nopRecorder) RecordSubmission(string, string, time.Duration) {}
func (nopRecorder) SetActiveWorkspaces(int) {}

// Deps are the collaborators shared by every workspace.
type Deps struct {
	Catalog   *catalog.Registry
	Forms     *request.Registry
	Directory directory.Lookup
	Postal    postal.Finder
	Submitter form.Submitter
	Recorder  Recorder
	Logger    *zap.Logger
	Now       func() time.Time
}

func (d *Deps) defaults() {
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Directory == nil {
		d.Directory = directory.Builtin()
	}
	if d.Submitter == nil {
		d.Submitter = form.LogSubmitter{Logger: d.Logger}
	}
}

// FieldInput is one field edit.
type FieldInput struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Workspace is the workflow screen of one logged-in session. All methods
// serialize on the workspace, so events of one session apply in order.
type Workspace struct {
	mu        sync.Mutex
	deps      *Deps
	sessionID string
	userID    string
	header    directory.HeaderInfo
	modals    *modal.Manager
	selected  string
	flow      *form.Flow
	loggedOut bool
	logger    *zap.Logger
}

func newWorkspace(ctx context.Context, deps *Deps, sessionID, userID string) *Workspace {
	logger := deps.Logger.With(zap.String("session_id", sessionID), zap.String("user_id", userID))
	return &Workspace{
		deps:      deps,
		sessionID: sessionID,
		userID:    userID,
		header:    directory.Header(ctx, deps.Directory, userID, logger),
		modals:    modal.NewManager(),
		logger:    logger,
	}
}

// SessionID returns the owning session.
func (w *Workspace) SessionID() string { return w.sessionID }

// UserID returns the logged-in user.
func (w *Workspace) UserID() string { return w.userID }

// LoggedOut reports whether the user accepted the logout dialog.
func (w *Workspace) LoggedOut() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loggedOut
}

// View renders the workflow screen.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view()
}

func (w *Workspace) view() View {
	if w.loggedOut {
		return LoginScreen("")
	}
	header := w.header
	v := View{
		Screen:    ScreenWorkflow,
		Header:    &header,
		Workflows: w.deps.Catalog.Options(),
		Selected:  w.selected,
		Modal:     w.modals.View(),
	}
	if w.flow != nil {
		fv := w.flow.View()
		v.Form = &fv
	}
	return v
}

// SelectWorkflow swaps the mounted form. Any open dialog is dropped along
// with the previous form; the empty id leaves no form mounted.
func (w *Workspace) SelectWorkflow(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id != "" {
		if _, ok := w.deps.Catalog.Get(id); !ok {
			return model.NewUnknownWorkflowError(id)
		}
	}
	w.modals.Dismiss()
	w.flow = nil
	w.selected = ""
	if id == "" {
		w.logger.Info("workflow unmounted")
		return nil
	}

	ctrl, err := w.deps.Forms.New(id)
	if err != nil {
		return translate(err, "")
	}
	w.flow = form.NewFlow(ctrl, w.modals, w.deps.Submitter,
		form.WithClock(w.deps.Now),
		form.WithOwner(w.sessionID, w.userID),
	)
	w.selected = id
	w.deps.Recorder.RecordWorkflowMount(id)
	w.logger.Info("workflow mounted", zap.String("workflow_id", id))
	return nil
}

func (w *Workspace) mounted() (*form.Flow, error) {
	if w.flow == nil {
		return nil, model.NewNoActiveFormError()
	}
	return w.flow, nil
}

// Input applies field edits in order. It stops at the first edit that
// fails; the edits before it stay applied.
func (w *Workspace) Input(_ context.Context, edits []FieldInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.mounted()
	if err != nil {
		return err
	}
	for _, e := range edits {
		if err := f.Input(e.ID, e.Value); err != nil {
			return translate(err, e.ID)
		}
	}
	return nil
}

// AttachFiles records the files chosen for a file field.
func (w *Workspace) AttachFiles(_ context.Context, field string, files []form.FileRef) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.mounted()
	if err != nil {
		return err
	}
	return translate(f.AttachFiles(field, files), field)
}

// AddRoute appends a candidate route to the subscription form.
func (w *Workspace) AddRoute(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.mounted()
	if err != nil {
		return err
	}
	sub, ok := f.Controller().(*request.Subscription)
	if !ok {
		return model.NewBadRequestError("The current form has no candidate routes")
	}
	return translate(f.Edit(func(form.Controller) error { return sub.AddRoute() }), "")
}

// SearchAddress looks up the entered postal code and fills the new address.
// The workspace is unlocked while the lookup runs; the outcome is applied
// only if the same form is still mounted and not waiting on a dialog.
func (w *Workspace) SearchAddress(ctx context.Context) error {
	w.mu.Lock()
	f, err := w.mounted()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	ac, ok := f.Controller().(*request.AddressChange)
	if !ok {
		w.mu.Unlock()
		return model.NewBadRequestError("The current form has no address search")
	}
	if f.Locked() {
		w.mu.Unlock()
		return translate(form.ErrBusy, "")
	}
	pending, msg, err := ac.BeginLookup()
	if err != nil {
		w.mu.Unlock()
		return translate(err, "")
	}
	if msg != nil {
		w.modals.OpenMessage(*msg)
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	addr, lookupErr := w.deps.Postal.Find(ctx, pending.Code)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.flow != f {
		w.logger.Debug("address lookup outcome dropped, form was swapped", zap.String("postal_code", pending.Code))
		return nil
	}
	if f.Locked() {
		ac.AbandonLookup(pending)
		w.logger.Debug("address lookup outcome dropped, dialog pending", zap.String("postal_code", pending.Code))
		return nil
	}
	if lookupErr != nil {
		w.logger.Warn("address lookup failed", zap.String("postal_code", pending.Code), zap.Error(lookupErr))
	}
	var dialog *modal.Message
	if err := f.Edit(func(form.Controller) error {
		dialog = ac.CompleteLookup(pending, addr, lookupErr)
		return nil
	}); err != nil {
		return translate(err, "")
	}
	if dialog != nil {
		w.modals.OpenMessage(*dialog)
	}
	return nil
}

// Submit validates the mounted form. A failed validation returns a
// VALIDATION_ERROR envelope; the inline messages also show in the view.
func (w *Workspace) Submit(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.mounted()
	if err != nil {
		return err
	}
	res, err := f.Submit(ctx)
	if err != nil {
		return translate(err, "")
	}
	if !res.OK() {
		for _, field := range res.Fields() {
			w.deps.Recorder.RecordValidationFailure(w.selected, field)
		}
		return model.NewValidationError(res.Errors())
	}
	return nil
}

// Confirm accepts the open confirmation dialog.
func (w *Workspace) Confirm(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return modalError(w.modals.Confirm(ctx), modal.KindConfirmation)
}

// Cancel declines the open confirmation dialog.
func (w *Workspace) Cancel(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return modalError(w.modals.Cancel(ctx), modal.KindConfirmation)
}

// Close dismisses the open message dialog.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return modalError(w.modals.Close(ctx), modal.KindMessage)
}

// RequestLogout asks the user to confirm logging out. Accepting unmounts the
// form and marks the workspace logged out; the caller ends the session. It is
// refused while another confirmation is open.
func (w *Workspace) RequestLogout(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modals.IsOpen(modal.KindConfirmation) {
		return model.NewInvalidTransitionError("Another confirmation is waiting for an answer")
	}
	w.modals.OpenConfirmation(modal.Confirmation{
		Title:        LogoutTitle,
		Body:         LogoutBody,
		ConfirmLabel: LogoutConfirmLabel,
		CancelLabel:  LogoutCancelLabel,
		OnConfirm: func(context.Context) {
			w.modals.Dismiss()
			w.flow = nil
			w.selected = ""
			w.loggedOut = true
			w.logger.Info("logout confirmed")
		},
	})
	return nil
}
