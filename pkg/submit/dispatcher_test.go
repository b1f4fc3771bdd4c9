package submit

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type fakeSender struct {
	receipt    Receipt
	err        error
	submits    int
	updates    int
	lastUpdate string
}

func (f *fakeSender) Submit(_ context.Context, _ *Payload) (Receipt, error) {
	f.submits++
	return f.receipt, f.err
}

func (f *fakeSender) Update(_ context.Context, submissionID string, _ *Payload) (Receipt, error) {
	f.updates++
	f.lastUpdate = submissionID
	return f.receipt, f.err
}

type codedError struct {
	code int
}

func (e codedError) Error() string   { return http.StatusText(e.code) }
func (e codedError) StatusCode() int { return e.code }

func TestDispatch_Success(t *testing.T) {
	sender := &fakeSender{receipt: Receipt{SubmissionID: "sub-7"}}
	var hooked Receipt
	dispatcher := NewDispatcher(sender, func(_ context.Context, r Receipt) error {
		hooked = r
		return nil
	})

	result, err := dispatcher.Dispatch(context.Background(), &Payload{FormID: "frm-1"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Receipt.SubmissionID != "sub-7" || result.HookErr != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	if hooked.SubmissionID != "sub-7" {
		t.Fatal("post-commit hook did not run")
	}
}

func TestDispatch_HookFailureDoesNotFailCommit(t *testing.T) {
	sender := &fakeSender{receipt: Receipt{SubmissionID: "sub-7"}}
	hookErr := errors.New("whatsapp relay down")
	dispatcher := NewDispatcher(sender, func(context.Context, Receipt) error { return hookErr })

	result, err := dispatcher.Dispatch(context.Background(), &Payload{FormID: "frm-1"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !errors.Is(result.HookErr, hookErr) {
		t.Fatalf("hook error not captured: %v", result.HookErr)
	}
}

func TestDispatch_Classification(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason Reason
	}{
		{"network", errors.New("connection reset"), ReasonNetwork},
		{"rejected", codedError{code: http.StatusUnprocessableEntity}, ReasonRejected},
		{"unauthorized", codedError{code: http.StatusUnauthorized}, ReasonAuthExpired},
		{"forbidden", codedError{code: http.StatusForbidden}, ReasonAuthExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{err: tc.err}
			dispatcher := NewDispatcher(sender, nil)

			_, err := dispatcher.Dispatch(context.Background(), &Payload{FormID: "frm-1"})
			var dispatchErr *Error
			if !errors.As(err, &dispatchErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if dispatchErr.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", dispatchErr.Reason, tc.reason)
			}
			if (tc.reason == ReasonAuthExpired) != IsAuthExpired(err) {
				t.Fatalf("IsAuthExpired mismatch for %q", tc.reason)
			}
		})
	}
}

func TestDispatchUpdate(t *testing.T) {
	sender := &fakeSender{receipt: Receipt{SubmissionID: "sub-2"}}
	dispatcher := NewDispatcher(sender, nil)

	if _, err := dispatcher.DispatchUpdate(context.Background(), "sub-2", &Payload{FormID: "frm-1"}); err != nil {
		t.Fatalf("DispatchUpdate: %v", err)
	}
	if sender.updates != 1 || sender.lastUpdate != "sub-2" {
		t.Fatalf("update not routed: %+v", sender)
	}
}

func TestDispatch_Preconditions(t *testing.T) {
	dispatcher := NewDispatcher(&fakeSender{}, nil)
	if _, err := dispatcher.Dispatch(context.Background(), nil); err == nil {
		t.Fatal("nil payload should error")
	}
	if _, err := dispatcher.Dispatch(context.Background(), &Payload{}); err == nil {
		t.Fatal("payload without form id should error")
	}
}
