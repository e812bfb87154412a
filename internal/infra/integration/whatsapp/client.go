package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/usecase"
)

type Client struct {
	accessToken  string
	phoneID      string
	templateName string
	languageCode string
	baseURL      string
	httpClient   *http.Client
}

func NewClient(accessToken, phoneID, templateName string) *Client {
	return &Client{
		accessToken:  accessToken,
		phoneID:      phoneID,
		templateName: templateName,
		languageCode: "en",
		baseURL:      "https://graph.facebook.com/v21.0",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send implements the channel adapter contract: the follow-up goes out
// as an approved template with recipient and agent names as body
// parameters.
func (c *Client) Send(ctx context.Context, msg usecase.OutboundMessage) usecase.ChannelResult {
	messageID, err := c.SendTemplate(ctx, SendMessageInput{
		PhoneNumber:  msg.To,
		TemplateName: c.templateName,
		Parameters:   []string{msg.RecipientName, msg.AgentName},
	})
	if err != nil {
		return usecase.ChannelResult{OK: false, Error: err.Error()}
	}
	return usecase.ChannelResult{OK: true, MessageID: messageID}
}

func (c *Client) SendTemplate(ctx context.Context, input SendMessageInput) (string, error) {
	if c.accessToken == "" || c.phoneID == "" || input.TemplateName == "" {
		log.Println("⚠️ WhatsApp: ACCESS_TOKEN, PHONE_ID or TEMPLATE_NAME not configured")
		return "", fmt.Errorf("whatsapp not configured")
	}

	// The Graph API expects numbers without the + prefix.
	to := strings.TrimPrefix(input.PhoneNumber, "+")

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "template",
		"template": map[string]interface{}{
			"name": input.TemplateName,
			"language": map[string]string{
				"code": c.languageCode,
			},
			"components": []map[string]interface{}{
				{
					"type":       "body",
					"parameters": convertParametersToAPI(input.Parameters),
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serializing whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building whatsapp request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("❌ WhatsApp: API returned status %d: %s", resp.StatusCode, string(respBody))
		middleware.RecordIntegrationError("whatsapp")
		return "", fmt.Errorf("whatsapp api error: %d", resp.StatusCode)
	}

	var result SendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parsing whatsapp response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("whatsapp: %s (code %d)", result.Error.Message, result.Error.Code)
	}

	messageID := ""
	if len(result.Messages) > 0 {
		messageID = result.Messages[0].ID
	}

	log.Printf("✅ WhatsApp: Message sent to %s", input.PhoneNumber)
	return messageID, nil
}

func convertParametersToAPI(params []string) []map[string]string {
	result := make([]map[string]string, 0, len(params))
	for _, param := range params {
		result = append(result, map[string]string{
			"type": "text",
			"text": param,
		})
	}
	return result
}
