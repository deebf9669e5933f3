package model

import "time"

// SignupStatus is the lifecycle state of an open-mic signup.  The only
// permitted transition is SignupConfirmed -> SignupCancelled.
type SignupStatus string

const (
    SignupConfirmed SignupStatus = "confirmed"
    SignupCancelled SignupStatus = "cancelled"
)

// Signup represents one open-mic registration as stored in the
// `openmic_signups` table.
//
// Fields:
//  ID                 – primary key identifier.
//  PerformerName      – name shown on the schedule.
//  Email              – performer contact; part of the (email, date) uniqueness rule.
//  Phone              – optional; when set an SMS confirmation is sent as well.
//  TimeSlot           – optional free-text slot label ("8:00pm").  Never parsed.
//  PerformanceDetails – optional free text.
//  IsReserve          – client-declared reserve flag, fixed at creation.
//  SignupDate         – calendar date of the open mic, formatted YYYY-MM-DD.
//  Status             – confirmed or cancelled.
//  CreatedAt          – creation timestamp; orders the reserve list.
type Signup struct {
    ID                 uint64       `json:"id"`                  // openmic_signups.id
    PerformerName      string       `json:"performer_name"`      // openmic_signups.performer_name
    Email              string       `json:"email"`               // openmic_signups.email
    Phone              *string      `json:"phone"`               // openmic_signups.phone (nullable)
    TimeSlot           *string      `json:"time_slot"`           // openmic_signups.time_slot (nullable)
    PerformanceDetails *string      `json:"performance_details"` // openmic_signups.performance_details (nullable)
    IsReserve          bool         `json:"is_reserve"`          // openmic_signups.is_reserve
    SignupDate         string       `json:"signup_date"`         // openmic_signups.signup_date
    Status             SignupStatus `json:"status"`              // openmic_signups.status
    CreatedAt          time.Time    `json:"created_at"`          // openmic_signups.created_at
}

// Slot returns the time slot label or the empty string when none was given.
func (s Signup) Slot() string {
    if s.TimeSlot == nil {
        return ""
    }
    return *s.TimeSlot
}

// HasPhone reports whether an SMS confirmation can be sent.
func (s Signup) HasPhone() bool {
    return s.Phone != nil && *s.Phone != ""
}

// DateSchedule is the confirmed lineup for one date split into the
// regular list and the reserve list.
type DateSchedule struct {
    Regular []Signup `json:"regular"`
    Reserve []Signup `json:"reserve"`
}
