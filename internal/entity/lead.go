package entity

import (
	"context"
	"time"
)

// Lead statuses that signal intent either way. Comparison is
// case-insensitive (see usecase scoring).
const (
	LeadStatusNew              = "new"
	LeadStatusContacted        = "contacted"
	LeadStatusInterested       = "interested"
	LeadStatusQualified        = "qualified"
	LeadStatusMeetingScheduled = "meeting_scheduled"
	LeadStatusHot              = "hot"
	LeadStatusNotInterested    = "not_interested"
	LeadStatusDoNotContact     = "do_not_contact"
	LeadStatusDead             = "dead"
	LeadStatusUnsubscribed     = "unsubscribed"
)

type Lead struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	OwnerName       string     `json:"owner_name,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	PropertyAddress string     `json:"property_address,omitempty"`
	Status          string     `json:"status"`
	ResponseCount   int        `json:"response_count"`
	MessagesSent    int        `json:"messages_sent"`
	LastResponseAt  *time.Time `json:"last_response_at,omitempty"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CRMID           string     `json:"crm_id,omitempty"`
	Score           int        `json:"score"`
	ScoreCategory   string     `json:"score_category,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (l *Lead) HasPhone() bool { return l.Phone != "" }
func (l *Lead) HasEmail() bool { return l.Email != "" }

type LeadRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Lead, error)
	Upsert(ctx context.Context, lead *Lead) error
	UpdateScore(ctx context.Context, id string, score int, category string) error
}
