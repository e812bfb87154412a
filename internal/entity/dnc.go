package entity

import (
	"context"
	"strings"
	"time"
)

// DNCEntry is a suppressed contact on an owner's do-not-contact list.
// Read-only from the dispatcher's perspective.
type DNCEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizePhone strips everything but digits so "+1 (555) 010-2030"
// and "15550102030" compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail lowercases and trims for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type DNCRepositoryInterface interface {
	// IsSuppressed reports whether the contact (phone or email, raw
	// form accepted) is on the owner's DNC list.
	IsSuppressed(ctx context.Context, userID, contact string) (bool, error)
}
