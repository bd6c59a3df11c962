package storage

import (
	"context"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type Notification struct {
	BookingID string
	Channel   string
	Recipient string
	Status    string
	Error     string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert keeps the first outcome per booking and channel.
func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (booking_id, channel, recipient, status, error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id, channel) DO NOTHING
	`, n.BookingID, n.Channel, n.Recipient, n.Status, n.Error)
	return err
}

// Record implements kafkax.Inbox on the inbox_events table.
func (r *Repository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
