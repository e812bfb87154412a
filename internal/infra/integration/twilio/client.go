package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

// Client talks to the Twilio REST API directly; no SDK needed for a
// single form-encoded endpoint.
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewClient(accountSID, authToken, fromNumber string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    "https://api.twilio.com/2010-04-01",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send implements the channel adapter contract for the SMS slot.
func (c *Client) Send(ctx context.Context, msg usecase.OutboundMessage) usecase.ChannelResult {
	sid, err := c.SendSMS(ctx, msg.To, msg.Body)
	if err != nil {
		return usecase.ChannelResult{OK: false, Error: err.Error()}
	}
	return usecase.ChannelResult{OK: true, MessageID: sid}
}

func (c *Client) SendSMS(ctx context.Context, to, body string) (string, error) {
	if c.accountSID == "" || c.authToken == "" || c.fromNumber == "" {
		log.Println("⚠️ Twilio: ACCOUNT_SID, AUTH_TOKEN or PHONE_NUMBER not configured")
		return "", fmt.Errorf("twilio not configured")
	}

	// Twilio wants E.164 numbers.
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building twilio request: %w", err)
	}

	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending SMS: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var result SendSMSResponse
	if err := json.Unmarshal(respBody, &result); err != nil && resp.StatusCode >= 400 {
		return "", fmt.Errorf("twilio error %d", resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		middleware.RecordIntegrationError("twilio")
		if result.Message != "" {
			return "", fmt.Errorf("twilio: %s", result.Message)
		}
		return "", fmt.Errorf("twilio error %d", resp.StatusCode)
	}

	log.Printf("✅ Twilio: SMS sent to %s (sid %s)", to, result.SID)
	return result.SID, nil
}
