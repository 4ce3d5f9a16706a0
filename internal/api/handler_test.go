package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pos-notifier/internal/dispatch"
	"github.com/example/pos-notifier/internal/notify"
	"github.com/example/pos-notifier/internal/record"
	"github.com/example/pos-notifier/internal/vocabulary"
)

type fakeNotifier struct {
	got        []notify.SendRequest
	result     notify.Result
	previewErr error
}

func (f *fakeNotifier) SendNotification(_ context.Context, req notify.SendRequest) notify.Result {
	f.got = append(f.got, req)
	return f.result
}

func (f *fakeNotifier) Template(_ context.Context, kind vocabulary.Kind, recordID, businessID int64) (notify.Preview, error) {
	if f.previewErr != nil {
		return notify.Preview{}, f.previewErr
	}
	return notify.Preview{Kind: kind, Name: fmt.Sprintf("%s/%d/%d", kind, recordID, businessID)}, nil
}

func TestValidateRequest(t *testing.T) {
	v := validator.New(validator.WithRequiredStructEnabled())
	valid := SendRequest{TemplateFor: "new_sale", TransactionID: 1, NotificationType: "both", ToEmail: "a@b.com"}

	tests := []struct {
		name    string
		mutate  func(*SendRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(*SendRequest) {}},
		{name: "missing kind", mutate: func(r *SendRequest) { r.TemplateFor = "" }, wantErr: true},
		{name: "missing record", mutate: func(r *SendRequest) { r.TransactionID = 0 }, wantErr: true},
		{name: "bad channel", mutate: func(r *SendRequest) { r.NotificationType = "push" }, wantErr: true},
		{name: "bad email", mutate: func(r *SendRequest) { r.ToEmail = "not-an-email" }, wantErr: true},
		{name: "email optional", mutate: func(r *SendRequest) { r.ToEmail = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := v.Struct(req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func post(t *testing.T, h http.Handler, business string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/send", bytes.NewReader(raw))
	if business != "" {
		req.Header.Set(businessHeader, business)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSendEndpoint(t *testing.T) {
	n := &fakeNotifier{result: notify.Result{Success: true, Message: notify.MsgSent}}
	h := NewHandler(n, zerolog.Nop()).Router()

	rec := post(t, h, "7", SendRequest{
		TemplateFor:      "new_booking",
		TransactionID:    42,
		NotificationType: "sms_only",
		MobileNumber:     "+1555",
		SMSBody:          "Hi {contact_name}",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var res notify.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.True(t, res.Success)
	require.Len(t, n.got, 1)
	assert.Equal(t, notify.SendRequest{
		Kind:       vocabulary.KindNewBooking,
		RecordID:   42,
		BusinessID: 7,
		Phone:      "+1555",
		SMSBody:    "Hi {contact_name}",
		Channel:    dispatch.ChannelSMSOnly,
	}, n.got[0])
}

func TestSendEndpointFailureIsStill200(t *testing.T) {
	n := &fakeNotifier{result: notify.Result{Message: notify.MsgFailed, Reason: notify.ReasonTransport}}
	h := NewHandler(n, zerolog.Nop()).Router()

	rec := post(t, h, "7", SendRequest{TemplateFor: "new_sale", TransactionID: 1, NotificationType: "email_only", ToEmail: "a@b.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestSendEndpointRejectsBadInput(t *testing.T) {
	n := &fakeNotifier{}
	h := NewHandler(n, zerolog.Nop()).Router()

	rec := post(t, h, "", SendRequest{TemplateFor: "new_sale", TransactionID: 1, NotificationType: "both"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h, "abc", SendRequest{TemplateFor: "new_sale", TransactionID: 1, NotificationType: "both"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h, "7", SendRequest{TemplateFor: "new_sale", TransactionID: 1, NotificationType: "fax"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, n.got)
}

func TestTemplateEndpoint(t *testing.T) {
	n := &fakeNotifier{}
	h := NewHandler(n, zerolog.Nop()).Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications/new_sale/records/12/template", nil)
	req.Header.Set(businessHeader, "3")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var p notify.Preview
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "new_sale/12/3", p.Name)

	n.previewErr = fmt.Errorf("transaction 12: %w", record.ErrNotFound)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	n.previewErr = fmt.Errorf("connection reset")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHealthz(t *testing.T) {
	h := NewHandler(&fakeNotifier{}, zerolog.Nop()).Router()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnmatchedRoutesShareOneMetricLabel(t *testing.T) {
	h := NewHandler(&fakeNotifier{}, zerolog.Nop()).Router()
	before := requestsByPath(t)

	for _, path := range []string{"/wp-login.php", "/.env", "/admin/config.php"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	after := requestsByPath(t)
	assert.Equal(t, 3.0, after[unmatchedRoute]-before[unmatchedRoute])
	assert.NotContains(t, after, "/wp-login.php")
	assert.NotContains(t, after, "/.env")
}

// requestsByPath sums api_requests_total per path label.
func requestsByPath(t *testing.T) map[string]float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "api_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "path" {
					out[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return out
}
