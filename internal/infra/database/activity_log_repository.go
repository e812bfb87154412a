package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/karim-hossien-dotcom/realestate-ai-sub000/internal/entity"
)

type ActivityLogRepository struct {
	DB *sql.DB
}

func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{DB: db}
}

// Insert appends one audit record. The table is insert-only; nothing
// in the dispatch path ever reads it back.
func (r *ActivityLogRepository) Insert(ctx context.Context, entry *entity.ActivityLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling activity metadata: %w", err)
	}

	query := `
		INSERT INTO activity_logs (id, user_id, event_type, description, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.DB.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.EventType,
		entry.Description,
		entry.Status,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting activity log: %w", err)
	}

	return nil
}
