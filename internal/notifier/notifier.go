package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"groceazy/internal/config"

	"go.uber.org/zap"
)

// Notifier sends a plain-text email to one or more recipients. Callers treat
// delivery as best-effort: errors are logged at the call site and never fail
// the operation that triggered the notification.
type Notifier interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

type emailParty struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      emailParty   `json:"sender"`
	To          []emailParty `json:"to"`
	Subject     string       `json:"subject"`
	TextContent string       `json:"textContent"`
}

// BrevoNotifier dispatches email through a Brevo-compatible transactional
// email HTTP API.
type BrevoNotifier struct {
	apiKey      string
	apiURL      string
	senderName  string
	senderEmail string
	client      *http.Client
	logger      *zap.Logger
}

// NewBrevoNotifier creates a Notifier backed by the configured email API.
func NewBrevoNotifier(cfg config.NotificationConfig, logger *zap.Logger) *BrevoNotifier {
	return &BrevoNotifier{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.APIURL,
		senderName:  cfg.SenderName,
		senderEmail: cfg.SenderEmail,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Send posts one email to the API. A missing API key disables delivery: the
// message is logged and dropped without error so that development setups work
// without credentials.
func (n *BrevoNotifier) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	if n.apiKey == "" {
		n.logger.Warn("Email API key missing, notification not sent",
			zap.Strings("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	recipients := make([]emailParty, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, emailParty{Email: addr})
	}

	payload := sendRequest{
		Sender:      emailParty{Name: n.senderName, Email: n.senderEmail},
		To:          recipients,
		Subject:     subject,
		TextContent: body,
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("api-key", n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}

	n.logger.Info("Email sent",
		zap.Strings("to", to),
		zap.String("subject", subject),
	)

	return nil
}
