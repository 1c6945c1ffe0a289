package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendDriver sends email through the Resend HTTP API.
type ResendDriver struct {
	client  *http.Client
	baseURL string
	apiKey  string
	from    string
}

// NewResendDriver constructs a driver for the Resend API.
func NewResendDriver(apiKey, from string) *ResendDriver {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.HTTPClient.Timeout = 15 * time.Second
	retryClient.Logger = nil

	return &ResendDriver{
		client:  retryClient.StandardClient(),
		baseURL: defaultResendBaseURL,
		apiKey:  apiKey,
		from:    from,
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (d *ResendDriver) WithBaseURL(url string) *ResendDriver {
	d.baseURL = url
	return d
}

type resendSendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendSendResponse struct {
	ID string `json:"id"`
}

// Send submits the email and returns the provider-assigned id.
func (d *ResendDriver) Send(ctx context.Context, out Outbound) (string, error) {
	payload, err := json.Marshal(resendSendRequest{
		From:    d.from,
		To:      []string{out.To},
		Subject: out.Subject,
		HTML:    out.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("mailer: marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("mailer: build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailer: send: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mailer: provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed resendSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("mailer: decode send response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("mailer: provider response missing email id")
	}
	return parsed.ID, nil
}

var _ Driver = (*ResendDriver)(nil)
