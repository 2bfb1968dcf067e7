// README: Out-of-band verification-code delivery via the Resend email API;
// logs the code instead when no API key is configured (dev mode).
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"fixly/internal/types"
)

const resendAPI = "https://api.resend.com/emails"

type ResendMailer struct {
	apiKey string
	from   string
	client *http.Client
	logger *slog.Logger
}

func NewResendMailer(apiKey, from string, logger *slog.Logger) *ResendMailer {
	return &ResendMailer{apiKey: apiKey, from: from, client: http.DefaultClient, logger: logger}
}

type resendEmail struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func (m *ResendMailer) SendVerificationCode(ctx context.Context, contact, code string, bookingID types.ID) error {
	if m.apiKey == "" {
		m.logger.Warn("no mail API key configured, logging verification code instead",
			"booking_id", bookingID, "contact", contact)
		return nil
	}

	body, err := json.Marshal(resendEmail{
		From:    m.from,
		To:      contact,
		Subject: "Your service verification code",
		Text: fmt.Sprintf("Share this code with your provider when they arrive: %s\n"+
			"It expires in 15 minutes.", code),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendAPI, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned %s", resp.Status)
	}
	return nil
}
