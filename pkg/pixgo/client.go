package pixgo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dice-gateway/bape/pkg/config"
	"github.com/dice-gateway/bape/pkg/enums"
	pkgerrors "github.com/dice-gateway/bape/pkg/errors"
	"github.com/dice-gateway/bape/pkg/logger"
)

var (
	errAPIKeyRequired  = errors.New("pixgo api key is required")
	errBaseURLRequired = errors.New("pixgo base url is required")
	errLoggerRequired  = errors.New("pixgo logger is required")
)

// Doer abstracts the HTTP transport so tests can stub it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client exposes PixGo primitives with centralized auth, logging, and error mapping.
type Client struct {
	httpClient Doer
	apiKey     string
	baseURL    string
	logger     *logger.Logger
}

// Charge is a freshly created PIX charge.
type Charge struct {
	PaymentID string
	QRPayload string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type createChargeData struct {
	PaymentID string `json:"payment_id"`
	QRCode    string `json:"qr_code"`
}

type statusData struct {
	Status string `json:"status"`
}

// NewClient initializes the PixGo wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PixGoConfig, logg *logger.Logger, httpClient Doer) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if !cfg.Configured() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, errAPIKeyRequired, "pixgo client misconfigured")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, errBaseURLRequired, "pixgo client misconfigured")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    baseURL,
		logger:     logg,
	}

	logg.Info(ctx, "pixgo client initialized")
	return c, nil
}

// CreateCharge submits a PIX charge for the given payer and returns the
// provider's payment id plus the copy-and-paste QR payload.
func (c *Client) CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	body := params.toRequest()
	c.log(ctx, "request", "create_charge", map[string]any{
		"amount":         body.Amount.StringFixed(2),
		"external_id":    body.ExternalID,
		"customer_name":  body.CustomerName,
		"customer_cpf":   body.CustomerCPF,
		"customer_email": body.CustomerEmail,
		"customer_phone": body.CustomerPhone,
	})

	env, err := c.do(ctx, http.MethodPost, "/v1/pix/create", body)
	if err != nil {
		c.log(ctx, "error", "create_charge", map[string]any{"error": err.Error()})
		return nil, err
	}

	var data createChargeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pixgo create charge returned malformed data")
	}
	if data.PaymentID == "" || data.QRCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pixgo create charge returned incomplete data")
	}

	c.log(ctx, "response", "create_charge", map[string]any{"payment_id": data.PaymentID})
	return &Charge{PaymentID: data.PaymentID, QRPayload: data.QRCode}, nil
}

// GetStatus fetches the provider's current view of a charge.
func (c *Client) GetStatus(ctx context.Context, paymentID string) (enums.ChargeStatus, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	c.log(ctx, "request", "get_status", map[string]any{"payment_id": paymentID})

	env, err := c.do(ctx, http.MethodGet, "/v1/pix/status/"+url.PathEscape(paymentID), nil)
	if err != nil {
		c.log(ctx, "error", "get_status", map[string]any{"error": err.Error(), "payment_id": paymentID})
		return "", err
	}

	var data statusData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pixgo status returned malformed data")
	}
	status, err := enums.ParseChargeStatus(data.Status)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pixgo status returned unknown value")
	}

	c.log(ctx, "response", "get_status", map[string]any{"payment_id": paymentID, "status": status.String()})
	return status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding pixgo request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building pixgo request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pixgo request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading pixgo response")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("pixgo responded %d", resp.StatusCode))
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "pixgo rejected the api key")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding pixgo response")
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		message := strings.TrimSpace(env.Message)
		if message == "" {
			message = "pixgo declined the request"
		}
		return nil, pkgerrors.New(pkgerrors.CodeProvider, message)
	}
	return &env, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("pixgo %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("pixgo %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"cpf", "cnpj", "email", "phone", "name", "token", "secret", "key"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
