package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest         = "BAD_REQUEST"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrNotFound           = "NOT_FOUND"
	ErrConflict           = "CONFLICT"
	ErrValidationError    = "VALIDATION_ERROR"
	ErrInvalidTransition  = "INVALID_TRANSITION"
	ErrInternalError      = "INTERNAL_ERROR"
	ErrBackendUnavailable = "BACKEND_UNAVAILABLE"
)

// Workspace-specific error codes.
const (
	ErrLoginFailed       = "LOGIN_FAILED"
	ErrRouteLimit        = "ROUTE_LIMIT"
	ErrNoActiveForm      = "NO_ACTIVE_FORM"
	ErrNoPendingModal    = "NO_PENDING_MODAL"
	ErrLookupInProgress  = "LOOKUP_IN_PROGRESS"
	ErrUnknownWorkflow   = "UNKNOWN_WORKFLOW"
	ErrUnknownFormField  = "UNKNOWN_FIELD"
	ErrSessionNotPresent = "SESSION_NOT_PRESENT"
)

// ErrorEnvelope is the standard error response envelope returned by the API.
// It implements the error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	TraceID string       `json:"trace_id"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewUnauthorizedError returns an UNAUTHORIZED error.
func NewUnauthorizedError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrUnauthorized, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
// Details keep the form's field declaration order.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewInvalidTransitionError returns an INVALID_TRANSITION error.
func NewInvalidTransitionError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrInvalidTransition, Message: msg}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}

// NewBackendUnavailableError returns a BACKEND_UNAVAILABLE error.
func NewBackendUnavailableError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrBackendUnavailable,
		Message: "The backend service is temporarily unavailable",
	}
}

// NewLoginFailedError returns a LOGIN_FAILED error carrying the exact
// user-facing login message.
func NewLoginFailedError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrLoginFailed, Message: msg}
}

// NewRouteLimitError returns a ROUTE_LIMIT error.
func NewRouteLimitError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrRouteLimit, Message: msg}
}

// NewNoActiveFormError returns a NO_ACTIVE_FORM error.
func NewNoActiveFormError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrNoActiveForm,
		Message: "No workflow form is currently selected",
	}
}

// NewNoPendingModalError returns a NO_PENDING_MODAL error.
func NewNoPendingModalError(kind string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrNoPendingModal,
		Message: fmt.Sprintf("No %s dialog is open", kind),
	}
}

// NewLookupInProgressError returns a LOOKUP_IN_PROGRESS error.
func NewLookupInProgressError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrLookupInProgress,
		Message: "An address search is already running for this form",
	}
}

// NewUnknownWorkflowError returns an UNKNOWN_WORKFLOW error.
func NewUnknownWorkflowError(id string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrUnknownWorkflow,
		Message: fmt.Sprintf("workflow %q is not in the catalog", id),
	}
}

// NewUnknownFieldError returns an UNKNOWN_FIELD error.
func NewUnknownFieldError(field string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrUnknownFormField,
		Message: fmt.Sprintf("field %q does not exist on the current form", field),
	}
}

// NewSessionNotPresentError returns a SESSION_NOT_PRESENT error.
func NewSessionNotPresentError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrSessionNotPresent,
		Message: "No logged-in session is present",
	}
}
