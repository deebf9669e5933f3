package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sunapee-sound/community-backend/internal/model"
)

// DeliveryLogRepo appends audit rows for outbound email and SMS.
type DeliveryLogRepo struct {
	db *sql.DB
}

func NewDeliveryLogRepo(db *sql.DB) *DeliveryLogRepo { return &DeliveryLogRepo{db: db} }

// Record writes one delivery outcome to email_log or sms_log depending on
// the record's channel.
func (r *DeliveryLogRepo) Record(ctx context.Context, rec model.DeliveryRecord) error {
	var errMsg interface{}
	if rec.Error != "" {
		errMsg = rec.Error
	}
	switch rec.Channel {
	case model.ChannelEmail:
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO email_log (recipient_email, subject, type, status, error_message) VALUES (?, ?, ?, ?, ?)`,
			rec.Recipient, rec.Subject, rec.Type, string(rec.Status), errMsg)
		return err
	case model.ChannelSMS:
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO sms_log (recipient_phone, message, type, status, error_message) VALUES (?, ?, ?, ?, ?)`,
			rec.Recipient, rec.Body, rec.Type, string(rec.Status), errMsg)
		return err
	}
	return fmt.Errorf("unknown delivery channel %q", rec.Channel)
}

// CountByStatus reports how many deliveries of a channel ended in status.
func (r *DeliveryLogRepo) CountByStatus(ctx context.Context, ch model.Channel, status model.Outcome) (int64, error) {
	table := "email_log"
	if ch == model.ChannelSMS {
		table = "sms_log"
	}
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE status = ?`, string(status)).Scan(&n)
	return n, err
}
