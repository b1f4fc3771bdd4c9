package session_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/catalog"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/submit"
	"github.com/goliatone/go-formflow/pkg/validation"
)

type stubSchema struct {
	version    catalog.VersionRecord
	rules      []catalog.RuleRecord
	versionErr error
	rulesErr   error
}

func (s *stubSchema) Version(ctx context.Context, formID string, formNo int) (catalog.VersionRecord, error) {
	if s.versionErr != nil {
		return catalog.VersionRecord{}, s.versionErr
	}
	return s.version, nil
}

func (s *stubSchema) ValidationRules(ctx context.Context, formID string) ([]catalog.RuleRecord, error) {
	if s.rulesErr != nil {
		return nil, s.rulesErr
	}
	return s.rules, nil
}

type stubOptions struct {
	labels map[string][]string
	errs   map[string]error
}

func (s *stubOptions) Options(ctx context.Context, columnID, formID string, dataType schema.DataType) ([]string, error) {
	if err, ok := s.errs[columnID]; ok {
		return nil, err
	}
	return s.labels[columnID], nil
}

type fakeSender struct {
	receipt  submit.Receipt
	err      error
	payloads []*submit.Payload
	updates  []string
	release  chan struct{}
}

func (f *fakeSender) Submit(ctx context.Context, payload *submit.Payload) (submit.Receipt, error) {
	if f.release != nil {
		<-f.release
	}
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return submit.Receipt{}, f.err
	}
	return f.receipt, nil
}

func (f *fakeSender) Update(ctx context.Context, submissionID string, payload *submit.Payload) (submit.Receipt, error) {
	f.updates = append(f.updates, submissionID)
	return f.Submit(ctx, payload)
}

type fakePayments struct {
	order     catalog.Order
	orderErr  error
	verifyErr error
	verified  []string
}

func (f *fakePayments) CreateOrder(ctx context.Context, formID string, amount int64) (catalog.Order, error) {
	if f.orderErr != nil {
		return catalog.Order{}, f.orderErr
	}
	return f.order, nil
}

func (f *fakePayments) VerifyPayment(ctx context.Context, orderID, paymentRef string) error {
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verified = append(f.verified, orderID+"/"+paymentRef)
	return nil
}

type codedError int

func (c codedError) Error() string   { return "request failed" }
func (c codedError) StatusCode() int { return int(c) }

func testRecord() catalog.VersionRecord {
	return catalog.VersionRecord{
		FormID:      "frm-1",
		FormNo:      2,
		FormName:    "Registration",
		EndDateTime: "2026-09-30T00:00:00Z",
		Columns: []catalog.ColumnRecord{
			{ColID: "c5", ColumnName: "Details", DataType: "h1", SequenceNo: 1},
			{ColID: "c1", ColumnName: "Full Name", DataType: "text", SequenceNo: 2, IsValid: true},
			{ColID: "c2", ColumnName: "City", DataType: "select", SequenceNo: 3},
			{ColID: "c3", ColumnName: "Interests", DataType: "checkbox", SequenceNo: 4},
			{ColID: "c4", ColumnName: "Photo", DataType: "photo", SequenceNo: 5},
		},
	}
}

func testOptions() *stubOptions {
	return &stubOptions{labels: map[string][]string{
		"c2": {"Pune", "Mumbai"},
		"c3": {"Music", "Sports", "Art"},
	}}
}

func newSession(t *testing.T, svc catalog.SchemaService, opts *stubOptions, sender submit.Sender, extra ...session.Option) *session.Session {
	t.Helper()
	if opts == nil {
		opts = testOptions()
	}
	extra = append([]session.Option{
		session.WithClock(func() time.Time {
			return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		}),
	}, extra...)
	return session.New("frm-1", 2, svc, catalog.NewProvider(opts), submit.NewDispatcher(sender, nil), extra...)
}

func loadedSession(t *testing.T, sender submit.Sender, extra ...session.Option) *session.Session {
	t.Helper()
	s := newSession(t, &stubSchema{version: testRecord()}, nil, sender, extra...)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadReady(t *testing.T) {
	svc := &stubSchema{
		version: testRecord(),
		rules:   []catalog.RuleRecord{{ColID: "c1", ValidationList: "Alphabet"}},
	}
	s := newSession(t, svc, nil, &fakeSender{})

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Phase(); got != session.PhaseReady {
		t.Fatalf("phase = %s, want %s", got, session.PhaseReady)
	}

	columns := s.Columns()
	ids := make([]string, 0, len(columns))
	for _, col := range columns {
		ids = append(ids, col.ID)
	}
	if diff := cmp.Diff([]string{"c5", "c1", "c2", "c3", "c4"}, ids); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}

	name, _ := s.Version().Column("c1")
	if name.ValidationRule != "Alphabet" {
		t.Errorf("c1 rule = %q, want merged Alphabet", name.ValidationRule)
	}
	if diff := cmp.Diff([]string{"Pune", "Mumbai"}, s.OptionLabels("c2")); diff != "" {
		t.Errorf("c2 options mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFailure(t *testing.T) {
	svc := &stubSchema{versionErr: errors.New("boom")}
	s := newSession(t, svc, nil, &fakeSender{})

	err := s.Load(context.Background())
	var lerr *session.LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want LoadError", err)
	}
	if got := s.Phase(); got != session.PhaseFailed {
		t.Fatalf("phase = %s, want %s", got, session.PhaseFailed)
	}
}

func TestLoadNoColumns(t *testing.T) {
	svc := &stubSchema{version: catalog.VersionRecord{FormID: "frm-1", FormNo: 2}}
	s := newSession(t, svc, nil, &fakeSender{})

	if err := s.Load(context.Background()); !errors.Is(err, session.ErrNoColumns) {
		t.Fatalf("err = %v, want ErrNoColumns", err)
	}
	if got := s.Phase(); got != session.PhaseNoColumns {
		t.Fatalf("phase = %s, want %s", got, session.PhaseNoColumns)
	}
}

func TestLoadDegradesOptionFailures(t *testing.T) {
	opts := testOptions()
	opts.errs = map[string]error{"c3": errors.New("options down")}
	s := newSession(t, &stubSchema{version: testRecord()}, opts, &fakeSender{})

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Phase(); got != session.PhaseReady {
		t.Fatalf("phase = %s, want ready despite option failure", got)
	}
	if len(s.OptionLabels("c3")) != 0 {
		t.Errorf("c3 options = %v, want empty", s.OptionLabels("c3"))
	}
	if _, ok := s.OptionFailures()["c3"]; !ok {
		t.Errorf("expected c3 in OptionFailures")
	}
}

func TestEditing(t *testing.T) {
	s := loadedSession(t, &fakeSender{})

	if err := s.SetValue("c1", "Ada Lovelace"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.SetValue("nope", "x"); !errors.Is(err, session.ErrUnknownColumn) {
		t.Errorf("unknown column err = %v", err)
	}
	if err := s.SetValue("c5", "x"); err == nil {
		t.Errorf("expected error writing to static column")
	}

	if err := s.SetValue("c2", "Nagpur"); err == nil {
		t.Errorf("expected rejection of label outside option set")
	}
	if err := s.SetValue("c2", "Pune"); err != nil {
		t.Fatalf("SetValue select: %v", err)
	}

	if err := s.ToggleSelection("c3", "Music"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := s.ToggleSelection("c3", "Art"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := s.ToggleSelection("c3", "Music"); err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	value, _ := s.Value("c3")
	if diff := cmp.Diff([]string{"Art"}, value.Labels()); diff != "" {
		t.Errorf("c3 selections mismatch (-want +got):\n%s", diff)
	}

	if err := s.SetValue("c1", ""); err != nil {
		t.Fatalf("clear via empty string: %v", err)
	}
	if _, ok := s.Value("c1"); ok {
		t.Errorf("c1 should be cleared")
	}
}

func TestAttachPhotoCap(t *testing.T) {
	s := loadedSession(t, &fakeSender{})

	// Exactly the cap is accepted.
	atLimit := bytes.Repeat([]byte{0xAA}, int(session.MaxPhotoBytes))
	if err := s.AttachPhoto("c4", "limit.jpg", atLimit); err != nil {
		t.Fatalf("AttachPhoto at limit: %v", err)
	}

	big := bytes.Repeat([]byte{0xAB}, int(session.MaxPhotoBytes)+1)
	err := s.AttachPhoto("c4", "big.jpg", big)
	var oerr *session.OversizedUploadError
	if !errors.As(err, &oerr) {
		t.Fatalf("err = %v, want OversizedUploadError", err)
	}
	if oerr.Limit != session.MaxPhotoBytes {
		t.Errorf("limit = %d, want %d", oerr.Limit, session.MaxPhotoBytes)
	}
	if _, ok := s.Value("c4"); ok {
		t.Errorf("rejected upload must clear the previous value")
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	sender := &fakeSender{}
	s := loadedSession(t, sender)

	// c1 is mandatory and missing.
	if err := s.SetValue("c2", "Pune"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	_, err := s.Submit(context.Background())
	var verr *session.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	want := validation.ErrorMap{"c1": "Full Name is required"}
	if diff := cmp.Diff(want, s.Errors()); diff != "" {
		t.Errorf("error map mismatch (-want +got):\n%s", diff)
	}
	if len(sender.payloads) != 0 {
		t.Errorf("nothing should have been dispatched")
	}
	if got := s.Phase(); got != session.PhaseReady {
		t.Errorf("phase = %s, want ready after validation failure", got)
	}

	// A later clean submit replaces the map wholesale.
	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !s.Errors().Empty() {
		t.Errorf("errors = %v, want wholesale replacement with empty map", s.Errors())
	}
}

func TestSubmitMandatoryCheckboxEmpty(t *testing.T) {
	record := testRecord()
	for i := range record.Columns {
		if record.Columns[i].ColID == "c3" {
			record.Columns[i].IsValid = true
		}
	}
	sender := &fakeSender{}
	s := newSession(t, &stubSchema{version: record}, nil, sender)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	// Toggle a label on and off again, leaving an empty selection list.
	if err := s.ToggleSelection("c3", "Music"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := s.ToggleSelection("c3", "Music"); err != nil {
		t.Fatalf("Toggle off: %v", err)
	}

	_, err := s.Submit(context.Background())
	var verr *session.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Errors["c3"]; !ok {
		t.Errorf("errors = %v, want c3 entry", verr.Errors)
	}
	if len(sender.payloads) != 0 {
		t.Errorf("nothing should have been dispatched")
	}
	if got := s.Phase(); got != session.PhaseReady {
		t.Errorf("phase = %s, want ready", got)
	}
}

func TestSubmitEmptyForm(t *testing.T) {
	record := testRecord()
	record.Columns = []catalog.ColumnRecord{
		{ColID: "c2", ColumnName: "City", DataType: "select", SequenceNo: 1},
	}
	s := newSession(t, &stubSchema{version: record}, nil, &fakeSender{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := s.Submit(context.Background()); !errors.Is(err, session.ErrEmptyForm) {
		t.Fatalf("err = %v, want ErrEmptyForm", err)
	}
}

func TestSubmitRegistrationClosed(t *testing.T) {
	s := newSession(t, &stubSchema{version: testRecord()}, nil, &fakeSender{},
		session.WithClock(func() time.Time {
			return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		}))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The window check fires before validation: even a form with a missing
	// mandatory value reports the closed window, not the field error.
	if _, err := s.Submit(context.Background()); !errors.Is(err, session.ErrRegistrationClosed) {
		t.Fatalf("err = %v, want ErrRegistrationClosed", err)
	}
	if !s.Errors().Empty() {
		t.Errorf("closed-window refusal must not touch the error map")
	}
}

func TestSubmitSuccess(t *testing.T) {
	sender := &fakeSender{receipt: submit.Receipt{SubmissionID: "sub-1", Message: "saved"}}
	s := loadedSession(t, sender)

	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	result, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Receipt.SubmissionID != "sub-1" {
		t.Errorf("receipt = %+v", result.Receipt)
	}
	if got := s.Phase(); got != session.PhaseSubmitSucceeded {
		t.Errorf("phase = %s, want %s", got, session.PhaseSubmitSucceeded)
	}
	if len(s.Values()) != 0 {
		t.Errorf("values must be cleared after a committed submit")
	}
	if len(sender.payloads) != 1 {
		t.Fatalf("dispatched %d payloads, want 1", len(sender.payloads))
	}
}

func TestSubmitFailurePreservesValues(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection reset")}
	s := loadedSession(t, sender)

	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected dispatch failure")
	}
	if got := s.Phase(); got != session.PhaseSubmitFailed {
		t.Errorf("phase = %s, want %s", got, session.PhaseSubmitFailed)
	}
	if _, ok := s.Value("c1"); !ok {
		t.Errorf("values must survive a failed submit")
	}
	if s.FailureMessage() == "" {
		t.Errorf("network failures carry a user-facing message")
	}
}

func TestSubmitAuthExpiryStaysSilent(t *testing.T) {
	sender := &fakeSender{err: codedError(401)}
	s := loadedSession(t, sender)

	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	_, err := s.Submit(context.Background())
	if !submit.IsAuthExpired(err) {
		t.Fatalf("err = %v, want auth-expired classification", err)
	}
	if msg := s.FailureMessage(); msg != "" {
		t.Errorf("auth expiry must not surface a message, got %q", msg)
	}
	if _, ok := s.Value("c1"); !ok {
		t.Errorf("values must survive an auth-expired submit")
	}
}

func TestSubmitSingleFlight(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{})}
	s := loadedSession(t, sender)

	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()

	// Wait for the first submit to reach the sender.
	for s.Phase() != session.PhaseSubmitting {
		time.Sleep(time.Millisecond)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, session.ErrSubmitInFlight) {
		t.Errorf("second submit err = %v, want ErrSubmitInFlight", err)
	}
	if err := s.SetValue("c1", "Grace"); !errors.Is(err, session.ErrSubmitInFlight) {
		t.Errorf("edit during submit err = %v, want ErrSubmitInFlight", err)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestReloadRefusedDuringSubmit(t *testing.T) {
	sender := &fakeSender{receipt: submit.Receipt{SubmissionID: "sub-7"}, release: make(chan struct{})}
	s := loadedSession(t, sender)

	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()

	for s.Phase() != session.PhaseSubmitting {
		time.Sleep(time.Millisecond)
	}
	if err := s.Reload(context.Background()); !errors.Is(err, session.ErrSubmitInFlight) {
		t.Errorf("reload during submit err = %v, want ErrSubmitInFlight", err)
	}
	if err := s.Load(context.Background()); !errors.Is(err, session.ErrSubmitInFlight) {
		t.Errorf("load during submit err = %v, want ErrSubmitInFlight", err)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	// The dispatch outcome survives the refused reloads.
	if got := s.Phase(); got != session.PhaseSubmitSucceeded {
		t.Fatalf("phase = %s, want %s", got, session.PhaseSubmitSucceeded)
	}
}

func TestSubmitPaymentFlow(t *testing.T) {
	sender := &fakeSender{receipt: submit.Receipt{SubmissionID: "sub-2"}}
	payments := &fakePayments{order: catalog.Order{OrderID: "ord-1", Amount: 500}}

	record := testRecord()
	record.Fees = 500
	s := newSession(t, &stubSchema{version: record}, nil, sender,
		session.WithPayments(payments, func(ctx context.Context, order catalog.Order) (string, error) {
			return "pay-9", nil
		}))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff([]string{"ord-1/pay-9"}, payments.verified); diff != "" {
		t.Errorf("verification mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitPaymentFailure(t *testing.T) {
	sender := &fakeSender{}
	payments := &fakePayments{orderErr: errors.New("gateway down")}

	record := testRecord()
	record.Fees = 500
	s := newSession(t, &stubSchema{version: record}, nil, sender,
		session.WithPayments(payments, func(ctx context.Context, order catalog.Order) (string, error) {
			return "", nil
		}))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	_, err := s.Submit(context.Background())
	var perr *session.PaymentError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PaymentError", err)
	}
	if perr.Stage != session.PaymentStageOrder {
		t.Errorf("stage = %s, want order", perr.Stage)
	}
	if len(sender.payloads) != 0 {
		t.Errorf("nothing may be dispatched after a payment failure")
	}
	if _, ok := s.Value("c1"); !ok {
		t.Errorf("values must survive a payment failure")
	}
}

func TestEditFlow(t *testing.T) {
	record := testRecord()
	record.Columns = append(record.Columns, catalog.ColumnRecord{
		ColID: "c6", ColumnName: "Member ID", DataType: "text", SequenceNo: 6, IsReadOnly: true,
	})
	sender := &fakeSender{receipt: submit.Receipt{SubmissionID: "sub-3"}}

	prefilled := schema.FormValues{}
	prefilled.SetText("c1", "Ada")
	prefilled.SetText("c6", "m-100")

	s := newSession(t, &stubSchema{version: record}, nil, sender,
		session.WithEditTarget("sub-3", prefilled))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.SetValue("c6", "m-999"); !errors.Is(err, session.ErrReadOnlyColumn) {
		t.Errorf("read-only edit err = %v", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff([]string{"sub-3"}, sender.updates); diff != "" {
		t.Errorf("update target mismatch (-want +got):\n%s", diff)
	}
}

func TestReloadDiscardsOptionValues(t *testing.T) {
	s := loadedSession(t, &fakeSender{})

	if err := s.SetValue("c1", "Ada"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.SetValue("c2", "Pune"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.ToggleSelection("c3", "Music"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if _, ok := s.Value("c1"); !ok {
		t.Errorf("scalar values survive a reload")
	}
	if _, ok := s.Value("c2"); ok {
		t.Errorf("select values are discarded on reload")
	}
	if _, ok := s.Value("c3"); ok {
		t.Errorf("checkbox values are discarded on reload")
	}
}
