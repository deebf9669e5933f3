package model

// Channel identifies an outbound delivery medium.
type Channel string

const (
    ChannelEmail Channel = "email"
    ChannelSMS   Channel = "sms"
)

// Outcome is the audited result of one delivery attempt.
type Outcome string

const (
    OutcomeSent     Outcome = "sent"
    OutcomeFailed   Outcome = "failed"
    OutcomeDisabled Outcome = "disabled"
)

// DeliveryRecord is written to `email_log` or `sms_log` for every
// attempted message.  Subject is empty for SMS.
//
// Fields:
//  Channel   – email or sms; selects the table.
//  Recipient – email address or phone number as supplied.
//  Subject   – email subject line.
//  Body      – SMS text (email bodies are not stored).
//  Type      – message type tag (openmic_confirmation, newsletter_welcome, ...).
//  Status    – outcome of the attempt.
//  Error     – failure or disabled reason.
type DeliveryRecord struct {
    Channel   Channel
    Recipient string
    Subject   string
    Body      string
    Type      string
    Status    Outcome
    Error     string
}
