package pixgo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dice-gateway/bape/pkg/config"
	"github.com/dice-gateway/bape/pkg/enums"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
	"github.com/dice-gateway/bape/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "pixgo-test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

func testConfig(baseURL string) config.PixGoConfig {
	return config.PixGoConfig{APIKey: "pk_test", BaseURL: baseURL}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), testConfig(srv.URL), testLogger(), srv.Client())
	require.NoError(t, err)
	return client, srv
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	cfg := config.PixGoConfig{BaseURL: "https://api.pixgo.io"}
	_, err := NewClient(context.Background(), cfg, testLogger(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}

func TestCreateChargeSuccess(t *testing.T) {
	var gotAuth, gotPath, gotCPF string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotCPF = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"payment_id":"pix_123","qr_code":"00020126payload"}}`))
	})

	charge, err := client.CreateCharge(context.Background(), ChargeParams{
		Amount:      decimal.RequireFromString("25.50"),
		Description: "Pagamento PIX",
		PayerName:   "Maria Silva",
		PayerTaxID:  "123.456.789-09",
		PayerEmail:  "maria@example.com",
		PayerPhone:  "+55 11 91234-5678",
		ExternalID:  "intent-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pix_123", charge.PaymentID)
	assert.Equal(t, "00020126payload", charge.QRPayload)
	assert.Equal(t, "Bearer pk_test", gotAuth)
	assert.Equal(t, "/v1/pix/create", gotPath)
	assert.Contains(t, gotCPF, `"customer_cpf":"12345678909"`)
}

func TestCreateChargeProviderDecline(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"message":"valor abaixo do minimo"}`))
	})

	_, err := client.CreateCharge(context.Background(), ChargeParams{
		Amount: decimal.RequireFromString("1.00"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProvider))
	assert.Contains(t, err.Error(), "valor abaixo do minimo")
}

func TestCreateChargeServerErrorIsDependency(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CreateCharge(context.Background(), ChargeParams{
		Amount: decimal.RequireFromString("25.00"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCreateChargeBadKeyIsConfiguration(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.CreateCharge(context.Background(), ChargeParams{
		Amount: decimal.RequireFromString("25.00"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}

func TestGetStatus(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"completed"}}`))
	})

	status, err := client.GetStatus(context.Background(), "pix_123")
	require.NoError(t, err)
	assert.Equal(t, enums.ChargeStatusCompleted, status)
	assert.Equal(t, "/v1/pix/status/pix_123", gotPath)
}

func TestGetStatusUnknownValue(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"weird"}}`))
	})

	_, err := client.GetStatus(context.Background(), "pix_123")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestGetStatusRequiresPaymentID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.GetStatus(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "12345678909", digitsOnly("123.456.789-09"))
	assert.Equal(t, "", digitsOnly("abc"))
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("customer_cpf", "12345678909"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}
