package fub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/http/middleware"
)

// Client pushes outreach notes into Follow Up Boss so the CRM timeline
// mirrors what the engine sent.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://api.followupboss.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateNote(ctx context.Context, personID, subject, body string) error {
	if c.apiKey == "" {
		log.Println("⚠️ FUB: API_KEY not configured")
		return fmt.Errorf("follow up boss not configured")
	}

	id, err := strconv.Atoi(personID)
	if err != nil {
		return fmt.Errorf("invalid FUB person id %q: %w", personID, err)
	}

	payload, err := json.Marshal(CreateNoteInput{
		PersonID: id,
		Subject:  subject,
		Body:     body,
	})
	if err != nil {
		return fmt.Errorf("serializing FUB note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/notes", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building FUB request: %w", err)
	}

	// The API key is the basic auth username; the password is anything.
	req.SetBasicAuth(c.apiKey, "x")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("creating FUB note: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		middleware.RecordIntegrationError("fub")
		var result NoteResponse
		if json.Unmarshal(respBody, &result) == nil && result.Message != "" {
			return fmt.Errorf("FUB: %s", result.Message)
		}
		return fmt.Errorf("FUB API returned %d", resp.StatusCode)
	}

	log.Printf("✅ FUB: Note created for person %d", id)
	return nil
}
