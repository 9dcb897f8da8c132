package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/marchingbytes/identity-service/config"

	"github.com/sirupsen/logrus"
)

// Notifier delivers transactional mail. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AsyncRunner executes fire-and-forget side effects such as sending mail.
// The default runner spawns a goroutine; tests substitute a synchronous one.
type AsyncRunner func(task func())

func defaultAsyncRunner(task func()) {
	go task()
}

const sendGridMailSendURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridNotifier sends mail through the SendGrid v3 REST API.
// With no API key configured it logs and drops the message, which keeps
// local development working without a SendGrid account.
type SendGridNotifier struct {
	cfg    config.SendGridConfig
	client *http.Client
}

func NewSendGridNotifier(cfg config.SendGridConfig) *SendGridNotifier {
	return &SendGridNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (n *SendGridNotifier) Send(ctx context.Context, to, subject, body string) error {
	if n.cfg.APIKey == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("sendgrid api key not configured, dropping email")
		return nil
	}

	mail := sendGridMail{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: to}}}},
		From:             sendGridAddress{Email: n.cfg.FromAddress, Name: n.cfg.FromName},
		Subject:          subject,
		Content:          []sendGridContent{{Type: "text/html", Value: body}},
	}

	payload, err := json.Marshal(mail)
	if err != nil {
		return fmt.Errorf("marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendGridMailSendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	return nil
}
