package form

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pitabwire/shinsei/internal/modal"
)

// ErrBusy is returned for edits and submits while a confirmation or result
// dialog of the form is pending.
var ErrBusy = errors.New("form: dialog pending, form is locked")

// Dialog texts used by the submit lifecycle.
const (
	SuccessTitle       = "送信成功"
	FailureTitle       = "送信失敗"
	FailureMessage     = "送信中にエラーが発生しました。時間をおいて再度お試しください。"
	confirmationSuffix = "の確認"
)

// Phase is the lifecycle position of a mounted form.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseEditing          Phase = "editing"
	PhaseValidationFailed Phase = "validation_failed"
	PhaseConfirmPending   Phase = "confirm_pending"
	PhaseSubmitted        Phase = "submitted"
)

// Submission is the canonical record handed to a Submitter. It is built from
// the visible form state, not from the confirmation summary.
type Submission struct {
	ID          uuid.UUID            `json:"id"`
	WorkflowID  string               `json:"workflow_id"`
	SessionID   string               `json:"session_id,omitempty"`
	UserID      string               `json:"user_id,omitempty"`
	Fields      map[string]string    `json:"fields"`
	Files       map[string][]FileRef `json:"files,omitempty"`
	SubmittedAt time.Time            `json:"submitted_at"`
}

// Submitter delivers accepted submissions.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) error { return f(ctx, sub) }

// LogSubmitter accepts every submission and logs it.
type LogSubmitter struct {
	Logger *zap.Logger
}

func (s LogSubmitter) Submit(_ context.Context, sub Submission) error {
	s.Logger.Info("submission accepted",
		zap.String("submission_id", sub.ID.String()),
		zap.String("workflow_id", sub.WorkflowID),
		zap.String("user_id", sub.UserID),
		zap.Int("fields", len(sub.Fields)),
		zap.Int("files", len(sub.Files)),
	)
	return nil
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithClock overrides the time source used for resets and timestamps.
func WithClock(now func() time.Time) FlowOption {
	return func(f *Flow) { f.now = now }
}

// WithOwner records the session and user a Flow submits for.
func WithOwner(sessionID, userID string) FlowOption {
	return func(f *Flow) {
		f.sessionID = sessionID
		f.userID = userID
	}
}

// Flow drives one mounted Controller through the submit lifecycle:
// validate, confirm, submit, acknowledge, reset.
type Flow struct {
	ctrl      Controller
	modals    *modal.Manager
	submitter Submitter
	now       func() time.Time
	sessionID string
	userID    string

	phase  Phase
	result Result
	last   *Submission
}

// NewFlow mounts ctrl and initializes it.
func NewFlow(ctrl Controller, modals *modal.Manager, submitter Submitter, opts ...FlowOption) *Flow {
	f := &Flow{
		ctrl:      ctrl,
		modals:    modals,
		submitter: submitter,
		now:       time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	f.ctrl.Initialize(f.now())
	f.phase = PhaseIdle
	return f
}

// Controller returns the mounted controller.
func (f *Flow) Controller() Controller { return f.ctrl }

// Phase returns the current lifecycle phase.
func (f *Flow) Phase() Phase { return f.phase }

// Result returns the result of the last submit attempt.
func (f *Flow) Result() Result { return f.result }

// LastSubmission returns the most recent accepted submission, if any.
func (f *Flow) LastSubmission() (Submission, bool) {
	if f.last == nil {
		return Submission{}, false
	}
	return *f.last, true
}

// Locked reports whether a confirmation or result dialog of the form is
// pending. Edits and submits are refused while locked.
func (f *Flow) Locked() bool {
	return f.phase == PhaseConfirmPending || f.phase == PhaseSubmitted
}

// Input applies one field edit.
func (f *Flow) Input(field, value string) error {
	return f.Edit(func(c Controller) error { return c.Input(field, value) })
}

// AttachFiles applies one file selection.
func (f *Flow) AttachFiles(field string, files []FileRef) error {
	return f.Edit(func(c Controller) error { return c.AttachFiles(field, files) })
}

// Edit runs a controller mutation unless the form is locked, then moves the
// lifecycle to editing once the form is dirty.
func (f *Flow) Edit(fn func(Controller) error) error {
	if f.Locked() {
		return ErrBusy
	}
	if err := fn(f.ctrl); err != nil {
		return err
	}
	if f.ctrl.Dirty() {
		f.phase = PhaseEditing
	}
	return nil
}

// Submit validates the form. On success it opens the confirmation dialog;
// on failure the returned Result carries the field errors.
func (f *Flow) Submit(_ context.Context) (Result, error) {
	if f.Locked() {
		return Result{}, ErrBusy
	}
	f.result = f.ctrl.Validate()
	if !f.result.OK() {
		f.phase = PhaseValidationFailed
		return f.result, nil
	}
	payload := f.ctrl.BuildConfirmation()
	f.phase = PhaseConfirmPending
	f.modals.OpenConfirmation(modal.Confirmation{
		Title:     payload.Title,
		Body:      payload,
		OnConfirm: f.confirm,
		OnCancel:  f.cancel,
	})
	return f.result, nil
}

func (f *Flow) cancel(context.Context) {
	if f.phase == PhaseConfirmPending {
		f.phase = PhaseEditing
	}
}

func (f *Flow) confirm(ctx context.Context) {
	if f.phase != PhaseConfirmPending {
		return
	}
	values, files := f.ctrl.Snapshot()
	sub := Submission{
		ID:          uuid.New(),
		WorkflowID:  f.ctrl.ID(),
		SessionID:   f.sessionID,
		UserID:      f.userID,
		Fields:      values,
		Files:       files,
		SubmittedAt: f.now().UTC(),
	}
	if err := f.submitter.Submit(ctx, sub); err != nil {
		f.phase = PhaseEditing
		f.modals.OpenMessage(modal.Message{
			Title:   FailureTitle,
			Body:    FailureMessage,
			IsError: true,
		})
		return
	}
	f.last = &sub
	f.phase = PhaseSubmitted
	f.modals.OpenMessage(modal.Message{
		Title:   SuccessTitle,
		Body:    f.ctrl.SuccessMessage(),
		OnClose: f.finish,
	})
}

func (f *Flow) finish(context.Context) {
	f.ctrl.Reset(f.now())
	f.result = Result{}
	f.phase = PhaseIdle
}

// View renders the mounted form with its lifecycle phase and the inline
// errors of the last submit attempt.
func (f *Flow) View() View {
	v := f.ctrl.View().withResult(f.result)
	v.Phase = f.phase
	return v
}

// ConfirmationTitle builds the dialog title for a workflow title.
func ConfirmationTitle(title string) string {
	return title + confirmationSuffix
}
