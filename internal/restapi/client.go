// Package restapi implements the catalog service contracts over HTTP. It is
// internal; callers construct clients through the root formflow package.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goliatone/go-formflow/pkg/catalog"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/submit"
)

// Client talks to the form-builder backend. It implements
// catalog.SchemaService, catalog.OptionService, catalog.PaymentService, and
// submit.Sender.
type Client struct {
	cfg catalog.Config
}

var (
	_ catalog.SchemaService  = (*Client)(nil)
	_ catalog.OptionService  = (*Client)(nil)
	_ catalog.PaymentService = (*Client)(nil)
	_ submit.Sender          = (*Client)(nil)
)

// New constructs a Client from a prepared configuration.
func New(cfg catalog.Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("restapi: base url is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{cfg: cfg}, nil
}

// Version fetches the schema-for-version record.
func (c *Client) Version(ctx context.Context, formID string, formNo int) (catalog.VersionRecord, error) {
	var record catalog.VersionRecord
	path := fmt.Sprintf("/forms/%s/versions/%d/columns", url.PathEscape(formID), formNo)
	if err := c.getJSON(ctx, path, nil, &record); err != nil {
		return catalog.VersionRecord{}, fmt.Errorf("restapi: fetch version: %w", err)
	}
	return record, nil
}

// ValidationRules fetches the named rules configured for the form.
func (c *Client) ValidationRules(ctx context.Context, formID string) ([]catalog.RuleRecord, error) {
	var records []catalog.RuleRecord
	path := fmt.Sprintf("/forms/%s/validations", url.PathEscape(formID))
	if err := c.getJSON(ctx, path, nil, &records); err != nil {
		return nil, fmt.Errorf("restapi: fetch validation rules: %w", err)
	}
	return records, nil
}

// optionPaths maps option-bearing data types onto their catalog endpoints.
// The backend keeps three parallel catalogs with an identical contract shape.
var optionPaths = map[schema.DataType]string{
	schema.DataTypeSelect:   "/options/select",
	schema.DataTypeRadio:    "/options/radio",
	schema.DataTypeCheckbox: "/options/checkbox",
}

// Options fetches the ordered option labels for one column.
func (c *Client) Options(ctx context.Context, columnID, formID string, dataType schema.DataType) ([]string, error) {
	path, ok := optionPaths[dataType]
	if !ok {
		return nil, fmt.Errorf("restapi: data type %q has no option catalog", dataType)
	}

	query := url.Values{}
	query.Set("colId", columnID)
	query.Set("formId", formID)

	var payload struct {
		Data []string `json:"data"`
	}
	if err := c.getJSON(ctx, path, query, &payload); err != nil {
		return nil, fmt.Errorf("restapi: fetch options: %w", err)
	}
	return payload.Data, nil
}

// Submit posts a new submission as a multipart body.
func (c *Client) Submit(ctx context.Context, payload *submit.Payload) (submit.Receipt, error) {
	return c.sendPayload(ctx, http.MethodPost, "/submissions", payload)
}

// Update replaces an existing submission.
func (c *Client) Update(ctx context.Context, submissionID string, payload *submit.Payload) (submit.Receipt, error) {
	path := "/submissions/" + url.PathEscape(submissionID)
	return c.sendPayload(ctx, http.MethodPut, path, payload)
}

// CreateOrder opens a payment order for a fee-bearing form.
func (c *Client) CreateOrder(ctx context.Context, formID string, amount int64) (catalog.Order, error) {
	body := map[string]string{
		"formId": formID,
		"amount": strconv.FormatInt(amount, 10),
	}
	var order catalog.Order
	if err := c.postJSON(ctx, "/payments/orders", body, &order); err != nil {
		return catalog.Order{}, fmt.Errorf("restapi: create order: %w", err)
	}
	return order, nil
}

// VerifyPayment confirms a completed payment against its order.
func (c *Client) VerifyPayment(ctx context.Context, orderID, paymentRef string) error {
	body := map[string]string{
		"orderId":    orderID,
		"paymentRef": paymentRef,
	}
	if err := c.postJSON(ctx, "/payments/verify", body, nil); err != nil {
		return fmt.Errorf("restapi: verify payment: %w", err)
	}
	return nil
}

func (c *Client) sendPayload(ctx context.Context, method, path string, payload *submit.Payload) (submit.Receipt, error) {
	if payload == nil {
		return submit.Receipt{}, errors.New("restapi: payload is required")
	}

	var body bytes.Buffer
	contentType, err := payload.Encode(&body)
	if err != nil {
		return submit.Receipt{}, err
	}

	req, err := c.newRequest(ctx, method, path, nil, &body)
	if err != nil {
		return submit.Receipt{}, err
	}
	req.Header.Set("Content-Type", contentType)

	var receipt submit.Receipt
	if err := c.do(req, &receipt); err != nil {
		return submit.Receipt{}, err
	}
	return receipt, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	if c.cfg.Timeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), c.cfg.Timeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp)
	}
	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("restapi: decode response: %w", err)
	}
	return nil
}
