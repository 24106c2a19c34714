// Package postmark sends email through the Postmark HTTP API.
package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultAPIURL is the Postmark single-message endpoint.
const DefaultAPIURL = "https://api.postmarkapp.com/email"

// Settings configures the Postmark sender.
type Settings struct {
	APIURL        string
	ServerToken   string
	From          string
	MessageStream string
}

// Sender implements notify.EmailSender.
type Sender struct {
	client   *http.Client
	settings Settings
}

func NewSender(client *http.Client, s Settings) *Sender {
	if s.APIURL == "" {
		s.APIURL = DefaultAPIURL
	}
	return &Sender{client: client, settings: s}
}

type emailJSON struct {
	From          string
	To            string
	Subject       string
	TextBody      string
	MessageStream string `json:",omitempty"`
}

type response struct {
	ErrorCode int
	Message   string
	MessageID string
}

func (s *Sender) SendEmail(ctx context.Context, to, subject, body string) error {
	var b bytes.Buffer
	err := json.NewEncoder(&b).Encode(emailJSON{
		From:          s.settings.From,
		To:            to,
		Subject:       subject,
		TextBody:      body,
		MessageStream: s.settings.MessageStream,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.settings.APIURL, &b)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", s.settings.ServerToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if res.ErrorCode != 0 {
		return fmt.Errorf("error code in response: %d %v", res.ErrorCode, res.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %v", resp.StatusCode, res.Message)
	}

	return nil
}
