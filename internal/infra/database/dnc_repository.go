package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

type DNCRepository struct {
	DB *sql.DB
}

func NewDNCRepository(db *sql.DB) *DNCRepository {
	return &DNCRepository{DB: db}
}

// IsSuppressed runs a set-membership check on the owner's DNC list.
// Phones compare digits-only, emails case-insensitively.
func (r *DNCRepository) IsSuppressed(ctx context.Context, userID, contact string) (bool, error) {
	if strings.Contains(contact, "@") {
		return r.emailSuppressed(ctx, userID, entity.NormalizeEmail(contact))
	}
	return r.phoneSuppressed(ctx, userID, entity.NormalizePhone(contact))
}

func (r *DNCRepository) phoneSuppressed(ctx context.Context, userID, digits string) (bool, error) {
	if digits == "" {
		return false, nil
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM dnc_list
			WHERE user_id = $1
			  AND regexp_replace(COALESCE(phone, ''), '\D', '', 'g') = $2
		)
	`

	var suppressed bool
	if err := r.DB.QueryRowContext(ctx, query, userID, digits).Scan(&suppressed); err != nil {
		return false, fmt.Errorf("checking DNC phone: %w", err)
	}
	return suppressed, nil
}

func (r *DNCRepository) emailSuppressed(ctx context.Context, userID, email string) (bool, error) {
	if email == "" {
		return false, nil
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM dnc_list
			WHERE user_id = $1
			  AND LOWER(COALESCE(email, '')) = $2
		)
	`

	var suppressed bool
	if err := r.DB.QueryRowContext(ctx, query, userID, email).Scan(&suppressed); err != nil {
		return false, fmt.Errorf("checking DNC email: %w", err)
	}
	return suppressed, nil
}
