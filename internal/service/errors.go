package service

import (
	"encoding/json"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/clubreg/portal/internal/checkout"
	"github.com/clubreg/portal/internal/storage"
	"github.com/clubreg/portal/internal/validation"
	"github.com/clubreg/portal/internal/wizard"
)

// toConnectError maps domain errors to Connect codes. Field errors are sent
// as a JSON object in the message so forms can show them inline.
func toConnectError(procedure string, err error) error {
	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		body, mErr := json.Marshal(fieldErrs)
		if mErr != nil {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
		return connect.NewError(connect.CodeInvalidArgument, errors.New(string(body)))
	}
	var inputErr *checkout.InputError
	if errors.As(err, &inputErr) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, wizard.ErrPlayerNotFound),
		errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, wizard.ErrBlocked),
		errors.Is(err, wizard.ErrNoTransition),
		errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrAlreadyEditing),
		errors.Is(err, wizard.ErrNotEditing),
		errors.Is(err, wizard.ErrSkipNotOffered),
		errors.Is(err, wizard.ErrClosed),
		errors.Is(err, checkout.ErrDraftNotSaved):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, wizard.ErrSubmitInFlight):
		code = connect.CodeAborted
	case errors.Is(err, wizard.ErrNotAuthenticated):
		code = connect.CodeUnauthenticated
	case errors.Is(err, checkout.ErrProvider),
		errors.Is(err, wizard.ErrDraftSave):
		code = connect.CodeUnavailable
	}
	if code == connect.CodeInternal {
		slog.Error("Registration request failed", "procedure", procedure, "error", err)
	}
	return connect.NewError(code, err)
}
