package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventFollowUpSent = "follow_up_sent"

	ActivityStatusSuccess = "success"
	ActivityStatusFailed  = "failed"
)

// ActivityMetadata is the bounded set of keys recorded per follow-up
// attempt. Kept as a typed struct rather than a free-form blob so the
// reporting side knows exactly what to expect.
type ActivityMetadata struct {
	FollowUpID   string   `json:"follow_up_id"`
	LeadID       string   `json:"lead_id"`
	EmailSent    bool     `json:"email_sent"`
	WhatsAppSent bool     `json:"whatsapp_sent"`
	Errors       []string `json:"errors,omitempty"`
}

// ActivityLogEntry is an append-only audit record. Never read back by
// the dispatcher; reporting is the only consumer.
type ActivityLogEntry struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	EventType   string           `json:"event_type"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Metadata    ActivityMetadata `json:"metadata"`
	CreatedAt   time.Time        `json:"created_at"`
}

func NewActivityLogEntry(userID, eventType, description, status string, meta ActivityMetadata) *ActivityLogEntry {
	return &ActivityLogEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		EventType:   eventType,
		Description: description,
		Status:      status,
		Metadata:    meta,
		CreatedAt:   time.Now(),
	}
}

const (
	MessageDirectionOutbound = "outbound"
	MessageDirectionInbound  = "inbound"
)

// Message is a normalized per-channel send record, one per successful
// channel attempt, consumed later by the conversation view.
type Message struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	LeadID            string    `json:"lead_id"`
	Direction         string    `json:"direction"`
	Channel           Channel   `json:"channel"`
	ToAddress         string    `json:"to_address"`
	Body              string    `json:"body"`
	Status            string    `json:"status"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewOutboundMessage(userID, leadID string, channel Channel, to, body, providerMessageID string) *Message {
	return &Message{
		ID:                uuid.New().String(),
		UserID:            userID,
		LeadID:            leadID,
		Direction:         MessageDirectionOutbound,
		Channel:           channel,
		ToAddress:         to,
		Body:              body,
		Status:            "sent",
		ProviderMessageID: providerMessageID,
		CreatedAt:         time.Now(),
	}
}

type ActivityLogRepositoryInterface interface {
	Insert(ctx context.Context, entry *ActivityLogEntry) error
}

type MessageRepositoryInterface interface {
	Insert(ctx context.Context, msg *Message) error
}
