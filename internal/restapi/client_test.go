package restapi

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formflow/pkg/catalog"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/submit"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(catalog.NewConfig(
		catalog.WithBaseURL(srv.URL),
		catalog.WithToken("tkn-1"),
	))
	require.NoError(t, err)
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(catalog.NewConfig())
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/frm-1/versions/3/columns", r.URL.Path)
		assert.Equal(t, "Bearer tkn-1", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(catalog.VersionRecord{
			FormID:   "frm-1",
			FormNo:   3,
			FormName: "Registration",
			Columns: []catalog.ColumnRecord{
				{ColID: "c1", ColumnName: "Name", DataType: "text", SequenceNo: 1},
			},
		})
	}))

	record, err := client.Version(context.Background(), "frm-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "Registration", record.FormName)
	require.Len(t, record.Columns, 1)
	assert.Equal(t, "c1", record.Columns[0].ColID)
}

func TestOptionsRoutesByDataType(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "c7", r.URL.Query().Get("colId"))
		assert.Equal(t, "frm-1", r.URL.Query().Get("formId"))
		_, _ = w.Write([]byte(`{"data":["red","green"]}`))
	}))

	labels, err := client.Options(context.Background(), "c7", "frm-1", schema.DataTypeRadio)
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "green"}, labels)
	assert.Equal(t, "/options/radio", gotPath)
}

func TestOptionsRejectsScalarType(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.Options(context.Background(), "c1", "frm-1", schema.DataTypeText)
	assert.Error(t, err)
}

func TestSubmitPostsMultipart(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submissions", r.URL.Path)

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "frm-1", r.FormValue("formId"))
		assert.Equal(t, "Ada", r.FormValue("c1"))

		_ = json.NewEncoder(w).Encode(submit.Receipt{SubmissionID: "sub-9", Message: "saved"})
	}))

	columns := []schema.ColumnDefinition{
		{ID: "c1", Name: "Name", DataType: schema.DataTypeText, SequenceNo: 1},
	}
	values := schema.FormValues{}
	values.SetText("c1", "Ada")

	payload := submit.Build("frm-1", columns, values, false)

	receipt, err := client.Submit(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "sub-9", receipt.SubmissionID)
}

func TestStatusErrorCarriesCodeAndMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"session expired"}`))
	}))

	_, err := client.Version(context.Background(), "frm-1", 1)
	require.Error(t, err)

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusForbidden, serr.StatusCode())
	assert.True(t, strings.Contains(serr.Error(), "session expired"))
}

func TestCreateOrderAndVerify(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/orders":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "frm-1", body["formId"])
			assert.Equal(t, "2500", body["amount"])
			_ = json.NewEncoder(w).Encode(catalog.Order{OrderID: "ord-1", Amount: 2500})
		case "/payments/verify":
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	order, err := client.CreateOrder(context.Background(), "frm-1", 2500)
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.OrderID)

	assert.NoError(t, client.VerifyPayment(context.Background(), "ord-1", "pay-77"))
}
