package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/sunapee-sound/community-backend/internal/model"
)

// SubscriberRepo stores notification signups and newsletter subscribers.
// Both lists use an active flag; unsubscribing clears it.
type SubscriberRepo struct {
	db *sql.DB
}

func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

// HasActiveNotification reports whether email already receives notifications.
func (r *SubscriberRepo) HasActiveNotification(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT id FROM notification_signups WHERE email = ? AND active = 1 LIMIT 1`, email)
}

// CreateNotification inserts a notification signup and populates its ID.
func (r *SubscriberRepo) CreateNotification(ctx context.Context, n *model.NotificationSignup) error {
	if n.Preferences.Timing == "" {
		n.Preferences.Timing = "1hour"
	}
	if n.Source == "" {
		n.Source = "website"
	}
	p := n.Preferences
	res, err := r.db.ExecContext(ctx, `INSERT INTO notification_signups (
            first_name, last_name, email, phone,
            notify_email, notify_sms,
            type_livestream, type_events, type_announcements,
            timing, source
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.FirstName, n.LastName, n.Email, nullable(n.Phone),
		p.NotifyEmail, p.NotifySMS,
		p.TypeLivestream, p.TypeEvents, p.TypeAnnouncements,
		p.Timing, n.Source)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	n.Active = true
	return nil
}

// ListNotifications returns active notification signups, newest first.
func (r *SubscriberRepo) ListNotifications(ctx context.Context) ([]model.NotificationSignup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, first_name, last_name, email, phone,
            notify_email, notify_sms, type_livestream, type_events, type_announcements,
            timing, source, active, created_at
        FROM notification_signups WHERE active = 1 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.NotificationSignup, 0)
	for rows.Next() {
		var (
			n     model.NotificationSignup
			phone sql.NullString
		)
		p := &n.Preferences
		if err := rows.Scan(&n.ID, &n.FirstName, &n.LastName, &n.Email, &phone,
			&p.NotifyEmail, &p.NotifySMS, &p.TypeLivestream, &p.TypeEvents, &p.TypeAnnouncements,
			&p.Timing, &n.Source, &n.Active, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Phone = stringPtr(phone)
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeactivateNotification unsubscribes every active signup for email.
func (r *SubscriberRepo) DeactivateNotification(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_signups SET active = 0 WHERE email = ? AND active = 1`, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	return expectRow(res)
}

// HasActiveNewsletter reports whether email is subscribed to the newsletter.
func (r *SubscriberRepo) HasActiveNewsletter(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT id FROM newsletter_signups WHERE email = ? AND active = 1 LIMIT 1`, email)
}

// CreateNewsletter inserts a subscriber and populates its ID.
func (r *SubscriberRepo) CreateNewsletter(ctx context.Context, s *model.NewsletterSubscriber) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO newsletter_signups (name, email) VALUES (?, ?)`, s.Name, s.Email)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.Active = true
	return nil
}

// ListNewsletter returns active subscribers, newest first.
func (r *SubscriberRepo) ListNewsletter(ctx context.Context) ([]model.NewsletterSubscriber, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, active, created_at
        FROM newsletter_signups WHERE active = 1 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.NewsletterSubscriber, 0)
	for rows.Next() {
		var s model.NewsletterSubscriber
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeactivateNewsletter unsubscribes email from the newsletter.
func (r *SubscriberRepo) DeactivateNewsletter(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE newsletter_signups SET active = 0 WHERE email = ? AND active = 1`, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *SubscriberRepo) exists(ctx context.Context, q, email string) (bool, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, q, strings.TrimSpace(email)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
