// Package notify delivers confirmation and welcome messages over email
// and SMS.  Every attempt is audited to the delivery log tables and, when a
// broker is configured, published as an audit event.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sunapee-sound/community-backend/internal/model"
	"github.com/sunapee-sound/community-backend/internal/queue"
)

// ErrDisabled is returned by senders that have no credentials configured.
var ErrDisabled = errors.New("delivery channel not configured")

// Message types recorded in the delivery log.
const (
	TypeOpenMicConfirmation = "openmic_confirmation"
	TypeNotificationWelcome = "notification_welcome"
	TypeNewsletterWelcome   = "newsletter_welcome"
)

// Email is one outbound message.  Text is derived from HTML when empty.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// SMSSender sends a text message to an E.164 phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// Recorder persists delivery outcomes.  *repository.DeliveryLogRepo
// satisfies it.
type Recorder interface {
	Record(ctx context.Context, rec model.DeliveryRecord) error
}

// DisabledMailer is the Mailer used when SMTP is not configured.
type DisabledMailer struct{}

// Send implements Mailer.
func (DisabledMailer) Send(context.Context, Email) error { return ErrDisabled }

// DisabledSMS is the SMSSender used when Twilio is not configured.
type DisabledSMS struct{}

// Send implements SMSSender.
func (DisabledSMS) Send(context.Context, string, string) error { return ErrDisabled }

// Dispatcher renders messages, sends them and audits the outcome.  It
// never returns delivery errors to callers.
type Dispatcher struct {
	mail     Mailer
	sms      SMSSender
	recorder Recorder
	sink     queue.Sink
	log      zerolog.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher wires a Dispatcher.  Nil senders are replaced by their
// disabled variants; a nil recorder or sink skips that audit step.
func NewDispatcher(mail Mailer, sms SMSSender, recorder Recorder, audit queue.Sink, log zerolog.Logger) *Dispatcher {
	if mail == nil {
		mail = DisabledMailer{}
	}
	if sms == nil {
		sms = DisabledSMS{}
	}
	if audit == nil {
		audit = queue.NopSink{}
	}
	return &Dispatcher{mail: mail, sms: sms, recorder: recorder, sink: audit, log: log, now: time.Now}
}

// Async runs fn on a tracked goroutine.  The context passed to fn keeps the
// values of ctx but not its cancellation and expires after 15s.
func (d *Dispatcher) Async(ctx context.Context, fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		fn(bctx)
	}()
}

// Wait blocks until every Async call has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// NotifyConfirmation sends the open-mic confirmation for s on channel ch.
func (d *Dispatcher) NotifyConfirmation(ctx context.Context, ch model.Channel, s model.Signup) model.Outcome {
	switch ch {
	case model.ChannelEmail:
		msg, err := openMicEmail(s)
		if err != nil {
			return d.fail(ctx, ch, s.Email, "", TypeOpenMicConfirmation, err)
		}
		return d.sendEmail(ctx, msg, TypeOpenMicConfirmation)
	case model.ChannelSMS:
		if !s.HasPhone() {
			return d.fail(ctx, ch, "", "", TypeOpenMicConfirmation, errors.New("signup has no phone number"))
		}
		return d.sendSMS(ctx, *s.Phone, openMicSMS(s), TypeOpenMicConfirmation)
	}
	return d.fail(ctx, ch, s.Email, "", TypeOpenMicConfirmation, errors.New("unknown channel"))
}

// NotifyWelcome sends the welcome messages for a new notification
// subscriber on each channel the subscriber opted into.  The returned map
// holds one outcome per attempted channel.
func (d *Dispatcher) NotifyWelcome(ctx context.Context, n model.NotificationSignup) map[model.Channel]model.Outcome {
	out := make(map[model.Channel]model.Outcome, 2)
	if n.Preferences.NotifyEmail {
		msg, err := notificationWelcomeEmail(n)
		if err != nil {
			out[model.ChannelEmail] = d.fail(ctx, model.ChannelEmail, n.Email, "", TypeNotificationWelcome, err)
		} else {
			out[model.ChannelEmail] = d.sendEmail(ctx, msg, TypeNotificationWelcome)
		}
	}
	if n.Preferences.NotifySMS && n.Phone != nil && *n.Phone != "" {
		out[model.ChannelSMS] = d.sendSMS(ctx, *n.Phone, notificationWelcomeSMS(n), TypeNotificationWelcome)
	}
	return out
}

// NotifyNewsletterWelcome sends the newsletter welcome email.
func (d *Dispatcher) NotifyNewsletterWelcome(ctx context.Context, sub model.NewsletterSubscriber) model.Outcome {
	msg, err := newsletterWelcomeEmail(sub)
	if err != nil {
		return d.fail(ctx, model.ChannelEmail, sub.Email, "", TypeNewsletterWelcome, err)
	}
	return d.sendEmail(ctx, msg, TypeNewsletterWelcome)
}

func (d *Dispatcher) sendEmail(ctx context.Context, msg Email, typ string) model.Outcome {
	rec := model.DeliveryRecord{
		Channel:   model.ChannelEmail,
		Recipient: msg.To,
		Subject:   msg.Subject,
		Type:      typ,
	}
	err := d.mail.Send(ctx, msg)
	switch {
	case errors.Is(err, ErrDisabled):
		rec.Status, rec.Error = model.OutcomeDisabled, "Email service not configured"
	case err != nil:
		rec.Status, rec.Error = model.OutcomeFailed, err.Error()
	default:
		rec.Status = model.OutcomeSent
	}
	d.record(ctx, rec, msg.Subject)
	return rec.Status
}

func (d *Dispatcher) sendSMS(ctx context.Context, phone, body, typ string) model.Outcome {
	rec := model.DeliveryRecord{
		Channel:   model.ChannelSMS,
		Recipient: phone,
		Body:      body,
		Type:      typ,
	}
	err := d.sms.Send(ctx, FormatPhoneNumber(phone), body)
	switch {
	case errors.Is(err, ErrDisabled):
		rec.Status, rec.Error = model.OutcomeDisabled, "SMS service not configured"
	case err != nil:
		rec.Status, rec.Error = model.OutcomeFailed, err.Error()
	default:
		rec.Status = model.OutcomeSent
	}
	d.record(ctx, rec, body)
	return rec.Status
}

func (d *Dispatcher) fail(ctx context.Context, ch model.Channel, to, content, typ string, err error) model.Outcome {
	rec := model.DeliveryRecord{
		Channel:   ch,
		Recipient: to,
		Type:      typ,
		Status:    model.OutcomeFailed,
		Error:     err.Error(),
	}
	d.record(ctx, rec, content)
	return rec.Status
}

// record logs the outcome, writes the delivery log row and publishes the
// audit event.  Failures here are logged only.
func (d *Dispatcher) record(ctx context.Context, rec model.DeliveryRecord, content string) {
	var ev *zerolog.Event
	switch rec.Status {
	case model.OutcomeSent, model.OutcomeDisabled:
		ev = d.log.Info()
	default:
		ev = d.log.Error()
	}
	ev = ev.Str("channel", string(rec.Channel)).
		Str("to", rec.Recipient).
		Str("type", rec.Type).
		Str("status", string(rec.Status)).
		Str("content", content)
	if rec.Error != "" {
		ev = ev.Str("error", rec.Error)
	}
	ev.Msg("notification delivery")

	if d.recorder != nil && rec.Recipient != "" {
		if err := d.recorder.Record(ctx, rec); err != nil {
			d.log.Error().Err(err).Str("channel", string(rec.Channel)).Msg("delivery log write failed")
		}
	}
	if err := d.sink.Publish(ctx, queue.NewDelivery(rec, d.now())); err != nil {
		d.log.Warn().Err(err).Msg("delivery audit publish failed")
	}
}
