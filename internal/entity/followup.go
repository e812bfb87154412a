package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxRetries is the hard cap on delivery retries. Once retry_count
// reaches it the follow-up is terminally failed and never reselected.
const MaxRetries = 3

type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpSent      FollowUpStatus = "sent"
	FollowUpPartial   FollowUpStatus = "partial"
	FollowUpFailed    FollowUpStatus = "failed"
	FollowUpCancelled FollowUpStatus = "cancelled"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelBoth     Channel = "both"
)

// FollowUp is one scheduled outreach touch for a lead. scheduled_at is
// immutable after creation; only status/retry/timestamps/error mutate,
// and only the dispatcher mutates them.
type FollowUp struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	LeadID         string         `json:"lead_id"`
	MessageText    string         `json:"message_text"`
	ScheduledAt    time.Time      `json:"scheduled_at"`
	Channel        Channel        `json:"channel"`
	Status         FollowUpStatus `json:"status"`
	RetryCount     int            `json:"retry_count"`
	FollowUpNumber int            `json:"follow_up_number"`
	EmailSentAt    *time.Time     `json:"email_sent_at,omitempty"`
	WhatsAppSentAt *time.Time     `json:"whatsapp_sent_at,omitempty"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Factory
func NewFollowUp(userID, leadID, messageText string, scheduledAt time.Time, channel Channel, number int) (*FollowUp, error) {
	if channel == "" {
		channel = ChannelBoth
	}
	f := &FollowUp{
		ID:             uuid.New().String(),
		UserID:         userID,
		LeadID:         leadID,
		MessageText:    messageText,
		ScheduledAt:    scheduledAt,
		Channel:        channel,
		Status:         FollowUpPending,
		FollowUpNumber: number,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *FollowUp) Validate() error {
	if f.UserID == "" {
		return errors.New("user_id is required")
	}
	if f.LeadID == "" {
		return errors.New("lead_id is required")
	}
	if f.ScheduledAt.IsZero() {
		return errors.New("scheduled_at is required")
	}
	switch f.Channel {
	case ChannelEmail, ChannelWhatsApp, ChannelBoth:
	default:
		return errors.New("channel must be email, whatsapp or both")
	}
	return nil
}

// Terminal reports whether the follow-up can never be selected again.
func (f *FollowUp) Terminal() bool {
	switch f.Status {
	case FollowUpSent, FollowUpPartial, FollowUpCancelled:
		return true
	case FollowUpFailed:
		return f.RetryCount >= MaxRetries
	}
	return false
}

type FollowUpRepositoryInterface interface {
	SelectDue(ctx context.Context, now time.Time, limit int) ([]*FollowUp, error)
	// MarkCancelled sets status=cancelled with a reason, only if the row
	// is still pending. Retry count is untouched.
	MarkCancelled(ctx context.Context, id, reason string) (bool, error)
	// MarkOutcome applies the aggregate result of a delivery attempt,
	// conditional on the row still being pending. Returns false when a
	// concurrent run already claimed the row.
	MarkOutcome(ctx context.Context, outcome FollowUpOutcome) (bool, error)
	// MarkRetry records a retryable failure (missing join target,
	// delivery failure on all channels): bumps retry_count and either
	// reverts to pending or terminally fails at MaxRetries.
	MarkRetry(ctx context.Context, id string, newRetryCount int, errMsg string) (bool, error)
	TryAcquireRunLock(ctx context.Context) (bool, error)
	ReleaseRunLock(ctx context.Context) error
}

// FollowUpOutcome is the write set persisted after channel attempts.
type FollowUpOutcome struct {
	ID             string
	Status         FollowUpStatus
	EmailSentAt    *time.Time
	WhatsAppSentAt *time.Time
	SentAt         *time.Time
	ErrorMessage   string
	RetryCount     int
}
