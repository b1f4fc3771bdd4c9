package submit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Receipt is the server's acknowledgement of a recorded submission.
type Receipt struct {
	SubmissionID string `json:"SubmissionId"`
	Message      string `json:"Message,omitempty"`
}

// Sender transports an encoded payload to the backend. internal/restapi
// provides the HTTP implementation; tests supply fakes.
type Sender interface {
	Submit(ctx context.Context, payload *Payload) (Receipt, error)
	Update(ctx context.Context, submissionID string, payload *Payload) (Receipt, error)
}

// Reason classifies a dispatch failure.
type Reason string

const (
	// ReasonNetwork covers transport errors: the request never produced a
	// server decision, so a user-initiated retry is safe.
	ReasonNetwork Reason = "network"
	// ReasonRejected covers server-side rejection of the payload.
	ReasonRejected Reason = "rejected"
	// ReasonAuthExpired marks 401/403 outcomes. These are not surfaced to
	// the respondent; the embedding session layer is expected to tear the
	// session down on its own.
	ReasonAuthExpired Reason = "auth-expired"
)

// Error wraps a failed dispatch with its classification.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("submit: dispatch failed (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// statusCoder is satisfied by transport errors that carry an HTTP status,
// such as restapi.StatusError.
type statusCoder interface {
	StatusCode() int
}

// Classify maps a raw sender error onto a dispatch reason.
func Classify(err error) Reason {
	var coded statusCoder
	if errors.As(err, &coded) {
		switch coded.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ReasonAuthExpired
		default:
			return ReasonRejected
		}
	}
	return ReasonNetwork
}

// Hook is the post-commit side channel invoked after a submission is
// recorded, e.g. an outbound respondent notification. Hook failures are
// reported alongside the result and never roll back the recorded outcome.
type Hook func(ctx context.Context, receipt Receipt) error

// Result reports a completed dispatch. HookErr carries the side-channel
// failure, if any, separately from the commit outcome.
type Result struct {
	Receipt Receipt
	HookErr error
}

// Dispatcher serialises payloads through a Sender and classifies failures.
// It never retries; retry is a user-initiated re-submit.
type Dispatcher struct {
	sender Sender
	hook   Hook
}

// NewDispatcher wires a sender and an optional post-commit hook.
func NewDispatcher(sender Sender, hook Hook) *Dispatcher {
	return &Dispatcher{sender: sender, hook: hook}
}

// Dispatch submits a new payload. On success the post-commit hook runs and
// its failure, if any, is captured in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, payload *Payload) (Result, error) {
	return d.send(ctx, payload, func(ctx context.Context) (Receipt, error) {
		return d.sender.Submit(ctx, payload)
	})
}

// DispatchUpdate replaces an existing submission.
func (d *Dispatcher) DispatchUpdate(ctx context.Context, submissionID string, payload *Payload) (Result, error) {
	return d.send(ctx, payload, func(ctx context.Context) (Receipt, error) {
		return d.sender.Update(ctx, submissionID, payload)
	})
}

func (d *Dispatcher) send(ctx context.Context, payload *Payload, call func(context.Context) (Receipt, error)) (Result, error) {
	if d == nil || d.sender == nil {
		return Result{}, errors.New("submit: sender is not configured")
	}
	if payload == nil || payload.FormID == "" {
		return Result{}, errors.New("submit: payload requires a form id")
	}

	receipt, err := call(ctx)
	if err != nil {
		return Result{}, &Error{Reason: Classify(err), Err: err}
	}

	result := Result{Receipt: receipt}
	if d.hook != nil {
		result.HookErr = d.hook(ctx, receipt)
	}
	return result, nil
}

// IsAuthExpired reports whether err is a dispatch failure classified as
// authorization expiry.
func IsAuthExpired(err error) bool {
	var dispatchErr *Error
	return errors.As(err, &dispatchErr) && dispatchErr.Reason == ReasonAuthExpired
}
