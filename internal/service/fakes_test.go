package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sunapee-sound/community-backend/internal/model"
	"github.com/sunapee-sound/community-backend/internal/queue"
	"github.com/sunapee-sound/community-backend/internal/repository"
)

// memStore mirrors SignupRepo semantics in memory.
type memStore struct {
	mu      sync.Mutex
	rows    []model.Signup
	nextID  uint64
	failErr error
	// insertErr is returned by Insert when set.
	insertErr error
}

func (m *memStore) Insert(_ context.Context, s *model.Signup) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	if m.failErr != nil {
		return 0, m.failErr
	}
	m.nextID++
	s.ID = m.nextID
	m.rows = append(m.rows, *s)
	return s.ID, nil
}

func (m *memStore) FindActiveByEmailAndDate(_ context.Context, email, date string) (*model.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	for _, r := range m.rows {
		if r.Email == email && r.SignupDate == date && r.Status != model.SignupCancelled {
			cp := r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListByDateAndStatus(_ context.Context, date string, status model.SignupStatus) ([]model.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []model.Signup
	for _, r := range m.rows {
		if r.SignupDate == date && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ListByStatusFromDate(_ context.Context, date string, status model.SignupStatus) ([]model.Signup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []model.Signup
	for _, r := range m.rows {
		if r.SignupDate >= date && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uint64, status model.SignupStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, m.failErr
	}
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].Status != status {
			m.rows[i].Status = status
			return 1, nil
		}
	}
	return 0, nil
}

type sent struct {
	channel model.Channel
	signup  model.Signup
}

type recordingNotifier struct {
	mu      sync.Mutex
	calls   []sent
	outcome model.Outcome
	gate    chan struct{}
}

func (n *recordingNotifier) NotifyConfirmation(_ context.Context, ch model.Channel, s model.Signup) model.Outcome {
	if n.gate != nil {
		<-n.gate
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sent{channel: ch, signup: s})
	if n.outcome == "" {
		return model.OutcomeSent
	}
	return n.outcome
}

func (n *recordingNotifier) channels() []model.Channel {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Channel, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.channel)
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	events []queue.AuditEvent
	err    error
}

func (r *recordingSink) Publish(_ context.Context, ev queue.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) kinds() []queue.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type stubLocker struct {
	err  error
	keys []string
}

func (l *stubLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.keys = append(l.keys, key)
	return func() {}, l.err
}

// tickClock returns a clock that advances one second per call.
func tickClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

var errDB = errors.New("db down")
