package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace-system/internal/domain"
)

type MySQLMessageRepository struct {
	db *sql.DB
}

func NewMySQLMessageRepository(db *sql.DB) *MySQLMessageRepository {
	return &MySQLMessageRepository{db: db}
}

func (r *MySQLMessageRepository) SaveMessage(ctx context.Context, msg *domain.Message) error {
	query := `
        INSERT INTO messages (id, sender_id, receiver_id, listing_id, content, is_read, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.ListingID,
		msg.Content, msg.Read, msg.CreatedAt)
	return err
}

func (r *MySQLMessageRepository) MessagesForUser(ctx context.Context, userID string) ([]*domain.MessageView, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT m.id, m.sender_id, m.receiver_id, m.listing_id, m.content, m.is_read, m.created_at,
               s.name, rc.name, l.name
        FROM messages m
        JOIN users s ON s.id = m.sender_id
        JOIN users rc ON rc.id = m.receiver_id
        JOIN listings l ON l.id = m.listing_id
        WHERE m.sender_id = ? OR m.receiver_id = ?
        ORDER BY m.created_at DESC
    `, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*domain.MessageView
	for rows.Next() {
		var view domain.MessageView

		err := rows.Scan(&view.ID, &view.SenderID, &view.ReceiverID,
			&view.ListingID, &view.Content, &view.Read, &view.CreatedAt,
			&view.SenderName, &view.ReceiverName, &view.ListingName)
		if err != nil {
			return nil, err
		}

		views = append(views, &view)
	}

	return views, rows.Err()
}

func (r *MySQLMessageRepository) MarkRead(ctx context.Context, messageID, userID string) error {
	// Only the receiver may mark a message read, and only once.
	result, err := r.db.ExecContext(ctx, `
        UPDATE messages SET is_read = TRUE
        WHERE id = ? AND receiver_id = ? AND is_read = FALSE
    `, messageID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("mark read %s: %w", messageID, domain.ErrMessageNotFound)
	}
	return nil
}
