package usecase

import (
	"context"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/infra/queue"
)

// ChannelResult is the uniform outcome of one provider send: success or
// failure plus an optional provider-side message id.
type ChannelResult struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OutboundMessage carries everything an adapter may need to render a
// follow-up. Adapters ignore the fields they don't use.
type OutboundMessage struct {
	To              string
	Body            string
	RecipientName   string
	PropertyAddress string
	AgentName       string
	AgentPhone      string
	AgentEmail      string
	FollowUpNumber  int
}

// ChannelSender is the opaque provider contract, one implementation per
// channel (SMTP email, WhatsApp Graph API, Twilio SMS).
type ChannelSender interface {
	Send(ctx context.Context, msg OutboundMessage) ChannelResult
}

type QueueProducerInterface interface {
	PublishEngagement(ctx context.Context, payload queue.EngagementPayload) error
}

// CRMNotifier pushes a note to the connected CRM after an outreach
// touch. Best-effort: a failure never affects dispatch results.
type CRMNotifier interface {
	CreateNote(ctx context.Context, personID, subject, body string) error
}
