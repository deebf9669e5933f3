// Package service holds the open-mic scheduling engine: signup
// validation, duplicate rules, cancellation and the schedule views.
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sunapee-sound/community-backend/internal/lock"
	"github.com/sunapee-sound/community-backend/internal/model"
	"github.com/sunapee-sound/community-backend/internal/queue"
	"github.com/sunapee-sound/community-backend/internal/repository"
	"github.com/sunapee-sound/community-backend/internal/utils"
)

// SignupStore is the persistence contract the engine needs.
// *repository.SignupRepo satisfies it.
type SignupStore interface {
	Insert(ctx context.Context, s *model.Signup) (uint64, error)
	FindActiveByEmailAndDate(ctx context.Context, email, date string) (*model.Signup, error)
	ListByDateAndStatus(ctx context.Context, date string, status model.SignupStatus) ([]model.Signup, error)
	ListByStatusFromDate(ctx context.Context, date string, status model.SignupStatus) ([]model.Signup, error)
	UpdateStatus(ctx context.Context, id uint64, status model.SignupStatus) (int64, error)
}

// Notifier sends a confirmation for a stored signup on one channel.  It
// never fails; the outcome is informational.
type Notifier interface {
	NotifyConfirmation(ctx context.Context, ch model.Channel, s model.Signup) model.Outcome
}

// Locker serialises work on one key.  Acquire returns lock.ErrHeld when
// another caller holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// SignupRequest is the input to SubmitSignup.  Optional text fields are
// stored as NULL when blank.
type SignupRequest struct {
	PerformerName      string `json:"performerName"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	TimeSlot           string `json:"timeSlot"`
	PerformanceDetails string `json:"performanceDetails"`
	IsReserve          bool   `json:"isReserve"`
	SignupDate         string `json:"signupDate"`
}

// SignupResult echoes the stored id and the reserve flag.
type SignupResult struct {
	ID        uint64
	IsReserve bool
}

// OpenMicService is the operation set exposed to the HTTP layer.
type OpenMicService interface {
	SubmitSignup(ctx context.Context, req SignupRequest) (SignupResult, error)
	CancelSignup(ctx context.Context, id uint64) error
	ScheduleForDate(ctx context.Context, date string) (model.DateSchedule, error)
	UpcomingSchedule(ctx context.Context, today string) (map[string]model.DateSchedule, error)
}

// Scheduler implements OpenMicService.  Confirmations are dispatched on
// background goroutines after the insert; Wait blocks until they finish.
type Scheduler struct {
	store    SignupStore
	notifier Notifier
	audit    queue.Sink
	locker   Locker
	now      func() time.Time
	log      zerolog.Logger

	lockTTL       time.Duration
	notifyTimeout time.Duration

	wg sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocker guards the duplicate check and insert for each
// (email, date) pair with l.
func WithLocker(l Locker) Option { return func(s *Scheduler) { s.locker = l } }

// WithAudit publishes signup changes to sink.
func WithAudit(sink queue.Sink) Option { return func(s *Scheduler) { s.audit = sink } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Scheduler) { s.log = l } }

// NewScheduler wires the engine.  A nil notifier behaves as if every
// channel were disabled.
func NewScheduler(store SignupStore, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:         store,
		notifier:      notifier,
		audit:         queue.NopSink{},
		locker:        noLock{},
		now:           time.Now,
		log:           zerolog.Nop(),
		lockTTL:       5 * time.Second,
		notifyTimeout: 15 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	if s.notifier == nil {
		s.notifier = disabledNotifier{}
	}
	return s
}

// SubmitSignup validates req, rejects a second active signup for the same
// email and date, stores the signup as confirmed and schedules the
// confirmation messages.  Validation runs in order and the first failure
// wins: required fields, email syntax, date format, duplicate.
func (s *Scheduler) SubmitSignup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	name := strings.TrimSpace(req.PerformerName)
	email := strings.TrimSpace(req.Email)
	date := strings.TrimSpace(req.SignupDate)

	if name == "" || email == "" || date == "" {
		return SignupResult{}, &ValidationError{Msg: MsgMissingFields}
	}
	if !utils.IsEmail(email) {
		return SignupResult{}, &ValidationError{Msg: MsgInvalidEmail}
	}
	if !utils.IsDate(date) {
		return SignupResult{}, &ValidationError{Msg: MsgInvalidDate}
	}

	// same email form the store compares
	release, err := s.locker.Acquire(ctx, email+"|"+date, s.lockTTL)
	switch {
	case errors.Is(err, lock.ErrHeld):
		return SignupResult{}, &ConflictError{Msg: MsgAlreadySignedUp}
	case err != nil:
		s.log.Warn().Err(err).Msg("signup lock unavailable; continuing without it")
	}
	if release != nil {
		defer release()
	}

	_, err = s.store.FindActiveByEmailAndDate(ctx, email, date)
	if err == nil {
		return SignupResult{}, &ConflictError{Msg: MsgAlreadySignedUp}
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return SignupResult{}, &DependencyError{Op: "find active signup", Err: err}
	}

	signup := model.Signup{
		PerformerName:      name,
		Email:              email,
		Phone:              optional(req.Phone),
		TimeSlot:           optional(req.TimeSlot),
		PerformanceDetails: optional(req.PerformanceDetails),
		IsReserve:          req.IsReserve,
		SignupDate:         date,
		Status:             model.SignupConfirmed,
		CreatedAt:          s.now().UTC(),
	}
	if _, err := s.store.Insert(ctx, &signup); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return SignupResult{}, &ConflictError{Msg: MsgAlreadySignedUp}
		}
		return SignupResult{}, &DependencyError{Op: "insert signup", Err: err}
	}

	s.log.Info().
		Uint64("signup_id", signup.ID).
		Str("signup_date", date).
		Bool("is_reserve", signup.IsReserve).
		Msg("open mic signup stored")

	s.background(ctx, func(bctx context.Context) {
		s.confirm(bctx, signup)
		s.publish(bctx, queue.NewSignupCreated(signup, s.now()))
	})

	return SignupResult{ID: signup.ID, IsReserve: signup.IsReserve}, nil
}

// CancelSignup marks the signup cancelled.  A signup that is unknown or
// already cancelled changes no row and yields NotFoundError.
func (s *Scheduler) CancelSignup(ctx context.Context, id uint64) error {
	n, err := s.store.UpdateStatus(ctx, id, model.SignupCancelled)
	if err != nil {
		return &DependencyError{Op: "cancel signup", Err: err}
	}
	if n == 0 {
		return &NotFoundError{Msg: MsgSignupNotFound}
	}
	s.log.Info().Uint64("signup_id", id).Msg("open mic signup cancelled")
	s.background(ctx, func(bctx context.Context) {
		s.publish(bctx, queue.NewSignupCancelled(id, s.now()))
	})
	return nil
}

// ScheduleForDate returns the confirmed lineup for date.  The regular list
// is ordered by time slot (blank first, ties keep insertion order); the
// reserve list is ordered by creation time.
func (s *Scheduler) ScheduleForDate(ctx context.Context, date string) (model.DateSchedule, error) {
	all, err := s.store.ListByDateAndStatus(ctx, date, model.SignupConfirmed)
	if err != nil {
		return model.DateSchedule{}, &DependencyError{Op: "list schedule", Err: err}
	}
	out := newDateSchedule()
	for _, sg := range all {
		if sg.IsReserve {
			out.Reserve = append(out.Reserve, sg)
		} else {
			out.Regular = append(out.Regular, sg)
		}
	}
	sort.SliceStable(out.Regular, func(i, j int) bool {
		return out.Regular[i].Slot() < out.Regular[j].Slot()
	})
	sort.SliceStable(out.Reserve, func(i, j int) bool {
		a, b := out.Reserve[i], out.Reserve[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// UpcomingSchedule groups every confirmed signup dated today or later by
// date.  Within a date, signups are split by the reserve flag and keep the
// (date, slot) order.  Dates without signups are absent.
func (s *Scheduler) UpcomingSchedule(ctx context.Context, today string) (map[string]model.DateSchedule, error) {
	all, err := s.store.ListByStatusFromDate(ctx, today, model.SignupConfirmed)
	if err != nil {
		return nil, &DependencyError{Op: "list upcoming", Err: err}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].SignupDate != all[j].SignupDate {
			return all[i].SignupDate < all[j].SignupDate
		}
		return all[i].Slot() < all[j].Slot()
	})
	out := make(map[string]model.DateSchedule)
	for _, sg := range all {
		if sg.SignupDate < today {
			continue
		}
		day, ok := out[sg.SignupDate]
		if !ok {
			day = newDateSchedule()
		}
		if sg.IsReserve {
			day.Reserve = append(day.Reserve, sg)
		} else {
			day.Regular = append(day.Regular, sg)
		}
		out[sg.SignupDate] = day
	}
	return out, nil
}

// Wait blocks until every in-flight confirmation and audit publish has
// finished.
func (s *Scheduler) Wait() { s.wg.Wait() }

// background runs fn detached from the request's cancellation but bounded
// by notifyTimeout.
func (s *Scheduler) background(parent context.Context, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.notifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Scheduler) confirm(ctx context.Context, sg model.Signup) {
	channels := []model.Channel{model.ChannelEmail}
	if sg.HasPhone() {
		channels = append(channels, model.ChannelSMS)
	}
	for _, ch := range channels {
		outcome := s.notifier.NotifyConfirmation(ctx, ch, sg)
		s.log.Debug().
			Uint64("signup_id", sg.ID).
			Str("channel", string(ch)).
			Str("outcome", string(outcome)).
			Msg("confirmation dispatched")
	}
}

func (s *Scheduler) publish(ctx context.Context, ev queue.AuditEvent) {
	if err := s.audit.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("audit publish failed")
	}
}

func newDateSchedule() model.DateSchedule {
	return model.DateSchedule{Regular: []model.Signup{}, Reserve: []model.Signup{}}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

type noLock struct{}

func (noLock) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

type disabledNotifier struct{}

func (disabledNotifier) NotifyConfirmation(context.Context, model.Channel, model.Signup) model.Outcome {
	return model.OutcomeDisabled
}
