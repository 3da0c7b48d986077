package screen

import (
	"errors"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/modal"
	"github.com/pitabwire/shinsei/internal/request"
	"github.com/pitabwire/shinsei/model"
)

// translate maps package sentinels to API error envelopes. field names the
// form field the failed operation addressed, if any.
func translate(err error, field string) error {
	if err == nil {
		return nil
	}
	var ee *model.ErrorEnvelope
	switch {
	case errors.As(err, &ee):
		return ee
	case errors.Is(err, form.ErrUnknownField):
		return model.NewUnknownFieldError(field)
	case errors.Is(err, form.ErrFieldType):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, form.ErrBusy):
		return model.NewInvalidTransitionError("The form is waiting for a dialog to be answered")
	case errors.Is(err, request.ErrRouteLimit):
		return model.NewRouteLimitError(request.RouteLimitMessage)
	case errors.Is(err, request.ErrLookupInProgress):
		return model.NewLookupInProgressError()
	}
	return err
}

func modalError(err error, kind modal.Kind) error {
	if errors.Is(err, modal.ErrNothingOpen) {
		return model.NewNoPendingModalError(string(kind))
	}
	return err
}
