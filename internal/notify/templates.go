package notify

import (
	"bytes"
	htmltemplate "html/template"
	"regexp"
	"strings"
	"text/template"

	"github.com/sunapee-sound/community-backend/internal/model"
)

const emailHeader = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <div style="background: linear-gradient(135deg, #1a1a1a, #2d2d2d); color: #F5E6D3; padding: 30px; text-align: center;">
        <h1 style="color: #D4AF37; margin: 0;">{{.Title}}</h1>
    </div>
    <div style="background: white; padding: 30px; color: #333;">`

const emailFooter = `    </div>
    <div style="background: #f5f5f5; padding: 20px; text-align: center; color: #666; font-size: 0.9em;">
        {{if .Unsubscribe}}<p>You can unsubscribe anytime by replying to this email with "unsubscribe".</p>{{end}}
        <p>Sunapee Sound Project | Sunapee Harbor, NH</p>
    </div>
</div>`

var openMicHTML = htmltemplate.Must(htmltemplate.New("openmic").Parse(emailHeader + `
        <h2 style="color: #6B1C23;">Hey {{.Name}}!</h2>
        {{if .IsReserve}}
        <p>You're on the <strong>reserve list</strong> for Open Mic Night on <strong>{{.Date}}</strong>.</p>
        <p>We'll contact you if a spot opens up!</p>
        {{else}}
        <p>Your spot is confirmed for Open Mic Night!</p>
        <div style="background: #faf8f5; padding: 20px; border-left: 4px solid #D4AF37; margin: 20px 0;">
            <p style="margin: 0;"><strong>Date:</strong> {{.Date}}</p>
            <p style="margin: 10px 0 0 0;"><strong>Time Slot:</strong> {{.Slot}}</p>
        </div>
        <p><strong>Remember:</strong> Each performer gets a 15-minute slot.</p>
        {{end}}
        <p><strong>Location:</strong> Hoptimystic, Sunapee Harbor</p>
        <p style="margin-top: 30px; padding-top: 30px; border-top: 2px solid #f0f0f0;">See you there! Can't wait to hear you perform!</p>
` + emailFooter))

var notificationWelcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(emailHeader + `
        <h2 style="color: #6B1C23;">Welcome, {{.Name}}!</h2>
        <p>Thanks for signing up for notifications! You're now part of the Sunapee Sound community.</p>
        <div style="background: #faf8f5; padding: 20px; border-left: 4px solid #D4AF37; margin: 20px 0;">
            <h3 style="color: #6B1C23; margin-top: 0;">Your Preferences:</h3>
            <ul style="list-style: none; padding: 0;">
                {{if .Prefs.NotifyEmail}}<li>&#10003; Email notifications</li>{{end}}
                {{if .Prefs.NotifySMS}}<li>&#10003; SMS notifications</li>{{end}}
            </ul>
            <ul style="list-style: none; padding: 0; margin-top: 15px;">
                {{if .Prefs.TypeLivestream}}<li>Livestream alerts</li>{{end}}
                {{if .Prefs.TypeEvents}}<li>Community events</li>{{end}}
                {{if .Prefs.TypeAnnouncements}}<li>Special announcements</li>{{end}}
            </ul>
            <p style="margin-bottom: 0;"><strong>Timing:</strong> {{.Timing}}</p>
        </div>
        <p>You'll receive your first notification when we have an upcoming event!</p>
        <p style="margin-top: 30px;"><a href="https://sunapeesound.com">Visit Our Website</a></p>
` + emailFooter))

var newsletterWelcomeHTML = htmltemplate.Must(htmltemplate.New("newsletter").Parse(emailHeader + `
        <h2 style="color: #6B1C23;">Welcome, {{.Name}}!</h2>
        <p>Thanks for subscribing to our newsletter! You'll receive weekly updates about upcoming events, performer lineups, and news about the Sunapee Sound Project.</p>
        <p>Stay tuned for great music every Friday night!</p>
` + emailFooter))

var smsTemplates = template.Must(template.New("sms").Parse(`
{{define "openmic"}}{{if .IsReserve}}Hey {{.Name}}! You're on the reserve list for Open Mic on {{.Date}}. We'll text if a spot opens. - Sunapee Sound{{else}}Confirmed {{.Name}}! Open Mic on {{.Date}} at {{.Slot}}. 15 min slot. See you at Hoptimystic! - Sunapee Sound{{end}}{{end}}
{{define "welcome"}}Hey {{.Name}}! Welcome to Sunapee Sound notifications. You'll get alerts for upcoming events. Reply STOP to unsubscribe anytime. - Sunapee Sound Project{{end}}
`))

type emailData struct {
	Title       string
	Name        string
	Date        string
	Slot        string
	IsReserve   bool
	Unsubscribe bool
	Prefs       model.NotificationPreferences
	Timing      string
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)
var blankLines = regexp.MustCompile(`\n\s*\n+`)

// plainText strips markup from an HTML body.
func plainText(html string) string {
	txt := tagPattern.ReplaceAllString(html, "")
	txt = strings.NewReplacer("&#10003;", "*", "&amp;", "&", "&#39;", "'", "&quot;", `"`).Replace(txt)
	return strings.TrimSpace(blankLines.ReplaceAllString(txt, "\n\n"))
}

func renderEmail(t *htmltemplate.Template, to, subject string, data emailData) (Email, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Email{}, err
	}
	return Email{To: to, Subject: subject, HTML: buf.String(), Text: plainText(buf.String())}, nil
}

func openMicEmail(s model.Signup) (Email, error) {
	subject := "Open Mic Confirmed!"
	if s.IsReserve {
		subject = "You're on the Reserve List!"
	}
	return renderEmail(openMicHTML, s.Email, subject, emailData{
		Title:     "Open Mic at Hoptimystic",
		Name:      s.PerformerName,
		Date:      s.SignupDate,
		Slot:      slotOrTBD(s),
		IsReserve: s.IsReserve,
	})
}

func notificationWelcomeEmail(n model.NotificationSignup) (Email, error) {
	return renderEmail(notificationWelcomeHTML, n.Email, "Welcome to Sunapee Sound Notifications!", emailData{
		Title:       "Sunapee Sound Project",
		Name:        n.FirstName,
		Prefs:       n.Preferences,
		Timing:      timingLabel(n.Preferences.Timing),
		Unsubscribe: true,
	})
}

func newsletterWelcomeEmail(sub model.NewsletterSubscriber) (Email, error) {
	return renderEmail(newsletterWelcomeHTML, sub.Email, "Welcome to Sunapee Sound Newsletter", emailData{
		Title: "Sunapee Sound Project",
		Name:  sub.Name,
	})
}

func openMicSMS(s model.Signup) string {
	return renderSMS("openmic", emailData{
		Name:      s.PerformerName,
		Date:      s.SignupDate,
		Slot:      slotOrTBD(s),
		IsReserve: s.IsReserve,
	})
}

func notificationWelcomeSMS(n model.NotificationSignup) string {
	return renderSMS("welcome", emailData{Name: n.FirstName})
}

func renderSMS(name string, data emailData) string {
	var buf bytes.Buffer
	// the templates only reference fields of emailData, so execution cannot fail
	_ = smsTemplates.ExecuteTemplate(&buf, name, data)
	return buf.String()
}

func slotOrTBD(s model.Signup) string {
	if slot := s.Slot(); slot != "" {
		return slot
	}
	return "TBD"
}

func timingLabel(t string) string {
	switch t {
	case "1hour":
		return "1 hour before"
	case "day":
		return "1 day before"
	}
	return "1 week before"
}
