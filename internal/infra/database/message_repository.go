package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

type MessageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) Insert(ctx context.Context, msg *entity.Message) error {
	query := `
		INSERT INTO messages (id, user_id, lead_id, direction, channel, to_address, body, status, provider_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
	`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		msg.ID,
		msg.UserID,
		msg.LeadID,
		msg.Direction,
		string(msg.Channel),
		msg.ToAddress,
		msg.Body,
		msg.Status,
		msg.ProviderMessageID,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message record: %w", err)
	}

	return nil
}
