package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sunapee-sound/community-backend/internal/model"
)

// EventRepo provides CRUD operations for community events.  Deletion is
// soft: the row stays with active=0 and disappears from every read.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, title, date, venue, description, link, source, tags, active, created_at, updated_at`

// EventFilter narrows List.  From is an inclusive YYYY-MM-DD lower bound;
// Limit <= 0 means no limit.
type EventFilter struct {
	From  string
	Limit int
}

// List returns active events ordered by date ascending.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE active = 1`
	args := []interface{}{}
	if f.From != "" {
		q += ` AND date >= ?`
		args = append(args, f.From)
	}
	q += ` ORDER BY date ASC, id ASC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// GetByID returns an active event or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND active = 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ev, err
}

// Create inserts an event and populates its ID.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	if ev.Source == "" {
		ev.Source = "sunapee_sound"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (title, date, venue, description, link, source, tags) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Title, ev.Date, nullable(ev.Venue), nullable(ev.Description), nullable(ev.Link), ev.Source, nullable(ev.Tags))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// Update overwrites the editable fields of an event.  ErrNotFound is
// returned when the id does not exist.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET title = ?, date = ?, venue = ?, description = ?, link = ?, tags = ?, updated_at = ?
         WHERE id = ?`,
		ev.Title, ev.Date, nullable(ev.Venue), nullable(ev.Description), nullable(ev.Link), nullable(ev.Tags),
		time.Now().UTC(), ev.ID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// Deactivate soft-deletes an event.
func (r *EventRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE events SET active = 0 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		ev                      model.Event
		date                    time.Time
		venue, desc, link, tags sql.NullString
	)
	if err := row.Scan(&ev.ID, &ev.Title, &date, &venue, &desc, &link, &ev.Source, &tags,
		&ev.Active, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return nil, err
	}
	ev.Date = formatDate(date)
	ev.Venue = stringPtr(venue)
	ev.Description = stringPtr(desc)
	ev.Link = stringPtr(link)
	ev.Tags = stringPtr(tags)
	return &ev, nil
}

// expectRow maps a zero-row mutation to ErrNotFound.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
