package session

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/validation"
)

var (
	// ErrNoColumns reports a successfully fetched form version that carries
	// no columns at all. The session enters PhaseNoColumns rather than
	// PhaseFailed so callers can present it as a configuration problem
	// instead of a transport one.
	ErrNoColumns = errors.New("session: form version has no columns")

	// ErrEmptyForm reports a submit attempt against a non-empty schema with
	// no values entered.
	ErrEmptyForm = errors.New("session: no values entered")

	// ErrRegistrationClosed reports a submit attempt after the version's
	// registration window has passed.
	ErrRegistrationClosed = errors.New("session: registration window has closed")

	// ErrSubmitInFlight reports a submit or edit attempt while a previous
	// submission is still being dispatched.
	ErrSubmitInFlight = errors.New("session: a submission is already in flight")

	// ErrNotReady reports an operation that requires a loaded schema.
	ErrNotReady = errors.New("session: schema not loaded")

	// ErrUnknownColumn reports an edit addressed at a column the loaded
	// version does not define.
	ErrUnknownColumn = errors.New("session: unknown column")

	// ErrReadOnlyColumn reports an edit against a read-only column in an
	// edit-submission flow.
	ErrReadOnlyColumn = errors.New("session: column is read only")
)

// LoadError wraps a schema or rule fetch failure.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "session: load failed: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ValidationError reports a submit attempt stopped by column validation. The
// session's error map is replaced with Errors before this is returned.
type ValidationError struct {
	Errors validation.ErrorMap
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("session: %d column(s) failed validation", len(e.Errors))
}

// PaymentStage names the step of the fee sub-flow that failed.
type PaymentStage string

const (
	PaymentStageOrder     PaymentStage = "order"
	PaymentStageAuthorize PaymentStage = "authorize"
	PaymentStageVerify    PaymentStage = "verify"
)

// PaymentError wraps a failure in the fee sub-flow. Entered values are
// preserved so the filler can retry.
type PaymentError struct {
	Stage PaymentStage
	Err   error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("session: payment %s failed: %v", e.Stage, e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// OversizedUploadError reports a photo upload over the size cap. The column's
// value is cleared before this is returned, so a stale smaller photo never
// survives a rejected replacement.
type OversizedUploadError struct {
	ColumnID string
	Size     int64
	Limit    int64
}

func (e *OversizedUploadError) Error() string {
	return fmt.Sprintf("session: upload for column %s is %d bytes, limit is %d", e.ColumnID, e.Size, e.Limit)
}
