package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendURL = "https://api.resend.com/emails"

// Sender delivers rendered digests through the Resend email API.
// A Sender with no API key is valid but not configured; callers should
// check Configured before attempting delivery.
type Sender struct {
	client  *http.Client
	baseURL string
	apiKey  string
	from    string
}

// NewSender creates a Resend-backed email sender.
func NewSender(apiKey, from string) *Sender {
	return &Sender{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultResendURL,
		apiKey:  apiKey,
		from:    from,
	}
}

// Configured reports whether the sender has credentials to deliver mail.
func (s *Sender) Configured() bool {
	return s.apiKey != ""
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one HTML email. It returns an error when the sender is
// unconfigured or the API rejects the request.
func (s *Sender) Send(ctx context.Context, to, subject, html string) error {
	if !s.Configured() {
		return fmt.Errorf("email sender not configured")
	}

	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshaling email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("email API returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
