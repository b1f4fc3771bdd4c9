// Package session drives one filling-and-submission pass over a form
// version: it loads the schema and its options, owns the entered values and
// the validation error map, and walks the submit flow including the payment
// step for fee-bearing forms.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-formflow/pkg/catalog"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/submit"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// MaxPhotoBytes caps photo uploads. Enforced at input time so an oversized
// file is rejected when attached, not when the form is submitted.
const MaxPhotoBytes int64 = 2 * 1024 * 1024

// Phase is the session's state machine position.
type Phase string

const (
	// PhaseLoading covers the window between construction and a completed
	// Load call.
	PhaseLoading Phase = "loading"
	// PhaseReady means the schema and options are loaded and the form can
	// be edited and submitted.
	PhaseReady Phase = "ready"
	// PhaseSubmitting means a submission is in flight. Edits and further
	// submits are refused.
	PhaseSubmitting Phase = "submitting"
	// PhaseSubmitSucceeded is entered after a committed submission; values
	// and errors have been cleared. The next edit returns to PhaseReady.
	PhaseSubmitSucceeded Phase = "submit-succeeded"
	// PhaseSubmitFailed is entered after a failed submission; values are
	// preserved. The next edit or submit returns to the normal flow.
	PhaseSubmitFailed Phase = "submit-failed"
	// PhaseFailed means the schema itself could not be loaded.
	PhaseFailed Phase = "failed"
	// PhaseNoColumns means the version loaded but defines no columns.
	PhaseNoColumns Phase = "no-columns"
)

// PaymentAuthorizer completes a created order with the payment gateway and
// returns the gateway's payment reference. Implementations typically hand the
// order to an interactive checkout.
type PaymentAuthorizer func(ctx context.Context, order catalog.Order) (string, error)

// Session is a single-form filling session. All methods are safe for
// concurrent use; state transitions are serialized.
type Session struct {
	formID     string
	formNo     int
	svc        catalog.SchemaService
	options    *catalog.Provider
	dispatcher *submit.Dispatcher
	payments   catalog.PaymentService
	authorizer PaymentAuthorizer
	now        func() time.Time

	// submissionID is set in edit flows; Submit then dispatches an update
	// and read-only columns refuse edits.
	submissionID string

	mu         sync.Mutex
	phase      Phase
	version    schema.FormVersion
	optionSets map[string]schema.OptionSet
	optionErrs map[string]error
	values     schema.FormValues
	errors     validation.ErrorMap
	loadErr    error
	failureMsg string
}

// Option customizes a Session.
type Option func(*Session)

// WithClock overrides the time source used for the registration-window
// check.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPayments wires the fee sub-flow. Both pieces are required for
// fee-bearing forms; without them Submit fails with a PaymentError.
func WithPayments(svc catalog.PaymentService, authorizer PaymentAuthorizer) Option {
	return func(s *Session) {
		s.payments = svc
		s.authorizer = authorizer
	}
}

// WithEditTarget turns the session into an edit flow: Submit updates the
// given submission, prefilled seeds the initial values, and read-only
// columns refuse edits.
func WithEditTarget(submissionID string, prefilled schema.FormValues) Option {
	return func(s *Session) {
		s.submissionID = submissionID
		if prefilled != nil {
			s.values = prefilled.Clone()
		}
	}
}

// New constructs a session for one form version. Call Load before editing.
func New(formID string, formNo int, svc catalog.SchemaService, options *catalog.Provider, dispatcher *submit.Dispatcher, opts ...Option) *Session {
	s := &Session{
		formID:     formID,
		formNo:     formNo,
		svc:        svc,
		options:    options,
		dispatcher: dispatcher,
		now:        time.Now,
		phase:      PhaseLoading,
		values:     schema.FormValues{},
		errors:     validation.ErrorMap{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the version's columns and validation rules, resolves option
// sets for every option-bearing column, and moves the session to PhaseReady.
// A version with zero columns moves to PhaseNoColumns instead; a fetch
// failure moves to PhaseFailed. While a submit is in flight the load is
// refused, so a dispatch outcome is never overwritten mid-write.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseSubmitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.phase = PhaseLoading
	s.loadErr = nil
	s.mu.Unlock()

	record, err := s.svc.Version(ctx, s.formID, s.formNo)
	if err != nil {
		return s.failLoad(fmt.Errorf("fetch version: %w", err))
	}
	version := catalog.BuildVersion(record)

	rules, err := s.svc.ValidationRules(ctx, s.formID)
	if err != nil {
		return s.failLoad(fmt.Errorf("fetch validation rules: %w", err))
	}
	version.Columns = schema.MergeValidationRules(version.Columns, catalog.BindRules(rules))

	if len(version.Columns) == 0 {
		s.mu.Lock()
		s.version = version
		s.phase = PhaseNoColumns
		s.loadErr = ErrNoColumns
		s.mu.Unlock()
		return ErrNoColumns
	}

	// Option fetch failures degrade to empty option sets rather than
	// failing the load; they stay inspectable through OptionFailures.
	sets, failures := s.options.Resolve(ctx, s.formID, version.Columns)

	s.mu.Lock()
	s.version = version
	s.optionSets = sets
	s.optionErrs = failures
	s.phase = PhaseReady
	s.mu.Unlock()
	return nil
}

func (s *Session) failLoad(err error) error {
	lerr := &LoadError{Err: err}
	s.mu.Lock()
	s.phase = PhaseFailed
	s.loadErr = lerr
	s.mu.Unlock()
	return lerr
}

// Reload refetches the schema and its options, discarding the cached option
// sets first. Values for option-bearing columns are dropped since their
// labels may no longer exist; scalar and file values survive. Validation
// errors are cleared and will be rebuilt by the next Submit.
func (s *Session) Reload(ctx context.Context) error {
	s.options.Invalidate(s.formID)
	if err := s.Load(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.values {
		column, ok := s.version.Column(id)
		if !ok || column.DataType.HasOptions() {
			s.values.Delete(id)
		}
	}
	s.errors = validation.ErrorMap{}
	return nil
}

// Phase reports the current state machine position.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Version returns the loaded form version.
func (s *Session) Version() schema.FormVersion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Columns returns the loaded columns in display order.
func (s *Session) Columns() []schema.ColumnDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version.Columns
}

// Values returns a copy of the entered values.
func (s *Session) Values() schema.FormValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Value returns the entered value for one column.
func (s *Session) Value(columnID string) (schema.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[columnID]
	return v, ok
}

// Errors returns a copy of the validation error map from the last submit
// attempt.
func (s *Session) Errors() validation.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.Clone()
}

// OptionLabels returns the resolved labels for one option-bearing column.
func (s *Session) OptionLabels(columnID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.optionSets[columnID]; ok {
		return set.Labels
	}
	return nil
}

// OptionFailures reports per-column option fetch failures from the last
// load. Affected columns carry empty option sets.
func (s *Session) OptionFailures() map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]error, len(s.optionErrs))
	for id, err := range s.optionErrs {
		out[id] = err
	}
	return out
}

// FailureMessage returns the receipt-facing message of the last submit
// failure. It stays empty for auth-expiry failures, which are surfaced to
// the caller but not to the filler.
func (s *Session) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failureMsg
}

// editableColumn validates an edit target and moves a post-submit phase back
// to PhaseReady. Callers hold s.mu.
func (s *Session) editableColumn(columnID string) (schema.ColumnDefinition, error) {
	switch s.phase {
	case PhaseReady:
	case PhaseSubmitSucceeded, PhaseSubmitFailed:
		s.phase = PhaseReady
	case PhaseSubmitting:
		return schema.ColumnDefinition{}, ErrSubmitInFlight
	default:
		return schema.ColumnDefinition{}, ErrNotReady
	}

	column, ok := s.version.Column(columnID)
	if !ok {
		return schema.ColumnDefinition{}, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if s.submissionID != "" && column.ReadOnly {
		return schema.ColumnDefinition{}, fmt.Errorf("%w: %s", ErrReadOnlyColumn, columnID)
	}
	return column, nil
}

// SetValue stores a scalar value, or replaces the single selection of a
// select/radio column. An empty string clears the column.
func (s *Session) SetValue(columnID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	column, err := s.editableColumn(columnID)
	if err != nil {
		return err
	}

	if column.DataType.Class() != schema.InputScalar {
		return fmt.Errorf("session: column %s does not take a text value", columnID)
	}
	if text == "" {
		s.values.Delete(columnID)
		return nil
	}
	// Select and radio values must come from the resolved option set.
	if column.DataType.HasOptions() {
		if err := s.checkLabel(column, text); err != nil {
			return err
		}
	}
	s.values.SetText(columnID, text)
	return nil
}

// ToggleSelection adds or removes one label from a checkbox column's ordered
// selection list.
func (s *Session) ToggleSelection(columnID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	column, err := s.editableColumn(columnID)
	if err != nil {
		return err
	}
	if column.DataType != schema.DataTypeCheckbox {
		return fmt.Errorf("session: column %s does not take toggled selections", columnID)
	}
	if err := s.checkLabel(column, label); err != nil {
		return err
	}
	s.values.Toggle(columnID, label)
	return nil
}

// checkLabel rejects labels outside the column's resolved option set.
// Callers hold s.mu.
func (s *Session) checkLabel(column schema.ColumnDefinition, label string) error {
	set, ok := s.optionSets[column.ID]
	if !ok {
		return fmt.Errorf("session: column %s has no resolved options", column.ID)
	}
	for _, known := range set.Labels {
		if known == label {
			return nil
		}
	}
	return fmt.Errorf("session: label %q is not an option of column %s", label, column.ID)
}

// Attach stores a file upload for a file column.
func (s *Session) Attach(columnID, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	column, err := s.editableColumn(columnID)
	if err != nil {
		return err
	}
	if column.DataType != schema.DataTypeFile {
		return fmt.Errorf("session: column %s does not take file uploads", columnID)
	}
	s.values.SetAttachment(columnID, schema.Attachment{Filename: filename, Data: data})
	return nil
}

// AttachPhoto stores a photo upload, enforcing MaxPhotoBytes. An oversized
// photo clears any previous value for the column and returns an
// OversizedUploadError.
func (s *Session) AttachPhoto(columnID, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	column, err := s.editableColumn(columnID)
	if err != nil {
		return err
	}
	if column.DataType != schema.DataTypePhoto {
		return fmt.Errorf("session: column %s does not take photo uploads", columnID)
	}

	att := schema.Attachment{Filename: filename, Data: data}
	if att.Size() > MaxPhotoBytes {
		s.values.Delete(columnID)
		return &OversizedUploadError{ColumnID: columnID, Size: att.Size(), Limit: MaxPhotoBytes}
	}
	s.values.SetAttachment(columnID, att)
	return nil
}

// Clear removes the entered value for one column.
func (s *Session) Clear(columnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.editableColumn(columnID); err != nil {
		return err
	}
	s.values.Delete(columnID)
	return nil
}

// Submit validates and dispatches the entered values. The checks run in a
// fixed order: single-flight, registration window, column validation
// (replacing the error map wholesale), empty-form, then the payment sub-flow
// for fee-bearing forms, then dispatch. On success the values and errors are
// cleared and the dispatcher's post-commit hook has run; on failure the
// values survive for a retry.
func (s *Session) Submit(ctx context.Context) (submit.Result, error) {
	s.mu.Lock()
	switch s.phase {
	case PhaseReady, PhaseSubmitSucceeded, PhaseSubmitFailed:
	case PhaseSubmitting:
		s.mu.Unlock()
		return submit.Result{}, ErrSubmitInFlight
	default:
		s.mu.Unlock()
		return submit.Result{}, ErrNotReady
	}

	if !s.version.Open(s.now()) {
		s.mu.Unlock()
		return submit.Result{}, ErrRegistrationClosed
	}

	s.errors = validation.EvaluateAll(s.version.Columns, s.values)
	if !s.errors.Empty() {
		s.phase = PhaseReady
		verr := &ValidationError{Errors: s.errors.Clone()}
		s.mu.Unlock()
		return submit.Result{}, verr
	}

	if len(s.values) == 0 {
		s.phase = PhaseReady
		s.mu.Unlock()
		return submit.Result{}, ErrEmptyForm
	}

	version := s.version
	values := s.values.Clone()
	forUpdate := s.submissionID != ""
	s.phase = PhaseSubmitting
	s.failureMsg = ""
	s.mu.Unlock()

	if version.Fee > 0 {
		if err := s.runPayment(ctx, version.Fee); err != nil {
			s.finishSubmit(PhaseSubmitFailed, err)
			return submit.Result{}, err
		}
	}

	payload := submit.Build(s.formID, version.Columns, values, forUpdate)

	var result submit.Result
	var err error
	if forUpdate {
		result, err = s.dispatcher.DispatchUpdate(ctx, s.submissionID, payload)
	} else {
		result, err = s.dispatcher.Dispatch(ctx, payload)
	}
	if err != nil {
		s.finishSubmit(PhaseSubmitFailed, err)
		return submit.Result{}, err
	}

	s.mu.Lock()
	s.values = schema.FormValues{}
	s.errors = validation.ErrorMap{}
	s.phase = PhaseSubmitSucceeded
	s.mu.Unlock()
	return result, nil
}

func (s *Session) runPayment(ctx context.Context, fee int64) error {
	if s.payments == nil || s.authorizer == nil {
		return &PaymentError{Stage: PaymentStageOrder, Err: fmt.Errorf("no payment service configured for fee %d", fee)}
	}

	order, err := s.payments.CreateOrder(ctx, s.formID, fee)
	if err != nil {
		return &PaymentError{Stage: PaymentStageOrder, Err: err}
	}
	ref, err := s.authorizer(ctx, order)
	if err != nil {
		return &PaymentError{Stage: PaymentStageAuthorize, Err: err}
	}
	if err := s.payments.VerifyPayment(ctx, order.OrderID, ref); err != nil {
		return &PaymentError{Stage: PaymentStageVerify, Err: err}
	}
	return nil
}

// finishSubmit records a submit outcome. Auth-expiry failures leave the
// user-facing failure message empty: the credential is gone, so a retry
// prompt would mislead the filler.
func (s *Session) finishSubmit(phase Phase, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	if err != nil && !submit.IsAuthExpired(err) {
		s.failureMsg = err.Error()
	}
}
