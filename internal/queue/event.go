// Package queue defines the audit messages exchanged over the message
// broker, the publisher that emits them and the consumer that appends
// them to logs/openmic.log.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sunapee-sound/community-backend/internal/model"
)

// Kind tags the payload carried by an AuditEvent.
type Kind string

const (
	KindSignupCreated   Kind = "openmic.signup_created"
	KindSignupCancelled Kind = "openmic.signup_cancelled"
	KindDelivery        Kind = "notification.delivery"
)

// SignupPayload describes an open-mic signup at the moment it changed.
type SignupPayload struct {
	SignupID      uint64 `json:"signup_id"`
	PerformerName string `json:"performer_name,omitempty"`
	Email         string `json:"email,omitempty"`
	SignupDate    string `json:"signup_date,omitempty"`
	TimeSlot      string `json:"time_slot,omitempty"`
	IsReserve     bool   `json:"is_reserve"`
}

// DeliveryPayload describes one email or SMS attempt.
type DeliveryPayload struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// AuditEvent is the envelope published for every signup change and every
// notification outcome.  Exactly one of Signup or Delivery is set.
// Consumers can log it without querying the primary database.
type AuditEvent struct {
	ID         string           `json:"id"`
	Kind       Kind             `json:"kind"`
	OccurredAt string           `json:"occurred_at"`
	Signup     *SignupPayload   `json:"signup,omitempty"`
	Delivery   *DeliveryPayload `json:"delivery,omitempty"`
}

// NewSignupCreated builds the event emitted after a signup is stored.
func NewSignupCreated(s model.Signup, at time.Time) AuditEvent {
	return AuditEvent{
		ID:         uuid.NewString(),
		Kind:       KindSignupCreated,
		OccurredAt: at.UTC().Format(time.RFC3339),
		Signup: &SignupPayload{
			SignupID:      s.ID,
			PerformerName: s.PerformerName,
			Email:         s.Email,
			SignupDate:    s.SignupDate,
			TimeSlot:      s.Slot(),
			IsReserve:     s.IsReserve,
		},
	}
}

// NewSignupCancelled builds the event emitted after a cancellation.
func NewSignupCancelled(id uint64, at time.Time) AuditEvent {
	return AuditEvent{
		ID:         uuid.NewString(),
		Kind:       KindSignupCancelled,
		OccurredAt: at.UTC().Format(time.RFC3339),
		Signup:     &SignupPayload{SignupID: id},
	}
}

// NewDelivery builds the event emitted for a notification outcome.
func NewDelivery(rec model.DeliveryRecord, at time.Time) AuditEvent {
	return AuditEvent{
		ID:         uuid.NewString(),
		Kind:       KindDelivery,
		OccurredAt: at.UTC().Format(time.RFC3339),
		Delivery: &DeliveryPayload{
			Channel:   string(rec.Channel),
			Recipient: rec.Recipient,
			Type:      rec.Type,
			Status:    string(rec.Status),
			Error:     rec.Error,
		},
	}
}

// LogLine renders the event as a single human-friendly line terminated by
// a newline.
func (e AuditEvent) LogLine() string {
	switch {
	case e.Kind == KindSignupCreated && e.Signup != nil:
		list := "regular"
		if e.Signup.IsReserve {
			list = "reserve"
		}
		slot := e.Signup.TimeSlot
		if slot == "" {
			slot = "TBD"
		}
		return fmt.Sprintf("[%s] Open mic signup | id=%d | performer=%q | email=%s | date=%s | slot=%q | list=%s | event=%s\n",
			e.OccurredAt, e.Signup.SignupID, e.Signup.PerformerName, e.Signup.Email, e.Signup.SignupDate, slot, list, e.ID)
	case e.Kind == KindSignupCancelled && e.Signup != nil:
		return fmt.Sprintf("[%s] Open mic cancellation | id=%d | event=%s\n", e.OccurredAt, e.Signup.SignupID, e.ID)
	case e.Kind == KindDelivery && e.Delivery != nil:
		line := fmt.Sprintf("[%s] Notification %s | channel=%s | to=%s | type=%s | event=%s",
			e.OccurredAt, e.Delivery.Status, e.Delivery.Channel, e.Delivery.Recipient, e.Delivery.Type, e.ID)
		if e.Delivery.Error != "" {
			line += fmt.Sprintf(" | error=%q", e.Delivery.Error)
		}
		return line + "\n"
	}
	return fmt.Sprintf("[%s] Unknown event | kind=%s | event=%s\n", e.OccurredAt, e.Kind, e.ID)
}
