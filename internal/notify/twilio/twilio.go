// Package twilio sends SMS through the Twilio Messages REST API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAPIURL is the base of the Twilio REST API.
const DefaultAPIURL = "https://api.twilio.com/2010-04-01"

// Settings configures the Twilio sender.
type Settings struct {
	APIURL     string
	AccountSID string
	AuthToken  string
	From       string
}

// Sender implements notify.SMSSender.
type Sender struct {
	client   *http.Client
	settings Settings
}

func NewSender(client *http.Client, s Settings) *Sender {
	if s.APIURL == "" {
		s.APIURL = DefaultAPIURL
	}
	s.APIURL = strings.TrimRight(s.APIURL, "/")
	return &Sender{client: client, settings: s}
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Sender) SendSMS(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.settings.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.settings.APIURL, url.PathEscape(s.settings.AccountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.settings.AccountSID, s.settings.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var res errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return fmt.Errorf("request failed with status %d: %d %s", resp.StatusCode, res.Code, res.Message)
}
