package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sunapee-sound/community-backend/internal/model"
)

// SignupRepo persists open-mic signups in the openmic_signups table.  Rows
// are never deleted; cancellation is a status update.  All timestamps are
// stored in UTC and dates are exchanged as YYYY-MM-DD strings.
type SignupRepo struct {
	db *sql.DB
}

// NewSignupRepo returns a new SignupRepo bound to the given database.
func NewSignupRepo(db *sql.DB) *SignupRepo { return &SignupRepo{db: db} }

const signupColumns = `id, performer_name, email, phone, time_slot, performance_details, is_reserve, signup_date, status, created_at`

// Insert stores a new signup and returns the generated id.  The caller
// supplies Status and CreatedAt; the row is durable once Insert returns.
func (r *SignupRepo) Insert(ctx context.Context, s *model.Signup) (uint64, error) {
	const q = `INSERT INTO openmic_signups
        (performer_name, email, phone, time_slot, performance_details, is_reserve, signup_date, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.PerformerName, s.Email, nullable(s.Phone), nullable(s.TimeSlot), nullable(s.PerformanceDetails),
		s.IsReserve, s.SignupDate, string(s.Status), s.CreatedAt.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.ID = uint64(id)
	return s.ID, nil
}

// FindActiveByEmailAndDate returns the non-cancelled signup for the
// (email, date) pair, or ErrNotFound when none exists.
func (r *SignupRepo) FindActiveByEmailAndDate(ctx context.Context, email, date string) (*model.Signup, error) {
	q := `SELECT ` + signupColumns + ` FROM openmic_signups
        WHERE email = ? AND signup_date = ? AND status <> ?
        ORDER BY id LIMIT 1`
	s, err := scanSignup(r.db.QueryRowContext(ctx, q, email, date, string(model.SignupCancelled)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByID fetches a signup regardless of its status.
func (r *SignupRepo) GetByID(ctx context.Context, id uint64) (*model.Signup, error) {
	q := `SELECT ` + signupColumns + ` FROM openmic_signups WHERE id = ?`
	s, err := scanSignup(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListByDateAndStatus returns every signup for one date in the given
// status, in insertion order.
func (r *SignupRepo) ListByDateAndStatus(ctx context.Context, date string, status model.SignupStatus) ([]model.Signup, error) {
	q := `SELECT ` + signupColumns + ` FROM openmic_signups
        WHERE signup_date = ? AND status = ?
        ORDER BY id`
	return r.list(ctx, q, date, string(status))
}

// ListByStatusFromDate returns signups in the given status dated on or
// after date (inclusive), ordered by date, then slot, then id.
func (r *SignupRepo) ListByStatusFromDate(ctx context.Context, date string, status model.SignupStatus) ([]model.Signup, error) {
	q := `SELECT ` + signupColumns + ` FROM openmic_signups
        WHERE signup_date >= ? AND status = ?
        ORDER BY signup_date, time_slot, id`
	return r.list(ctx, q, date, string(status))
}

// UpdateStatus moves a signup to status and reports how many rows
// changed.  Rows already in the target status are not touched, so a
// repeated cancellation affects zero rows.
func (r *SignupRepo) UpdateStatus(ctx context.Context, id uint64, status model.SignupStatus) (int64, error) {
	const q = `UPDATE openmic_signups SET status = ? WHERE id = ? AND status <> ?`
	res, err := r.db.ExecContext(ctx, q, string(status), id, string(status))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SignupRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Signup, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Signup, 0)
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignup(row rowScanner) (*model.Signup, error) {
	var (
		s                     model.Signup
		phone, slot, details  sql.NullString
		signupDate, createdAt time.Time
		status                string
	)
	if err := row.Scan(&s.ID, &s.PerformerName, &s.Email, &phone, &slot, &details,
		&s.IsReserve, &signupDate, &status, &createdAt); err != nil {
		return nil, err
	}
	s.Phone = stringPtr(phone)
	s.TimeSlot = stringPtr(slot)
	s.PerformanceDetails = stringPtr(details)
	s.SignupDate = formatDate(signupDate)
	s.Status = model.SignupStatus(status)
	s.CreatedAt = createdAt.UTC()
	return &s, nil
}
