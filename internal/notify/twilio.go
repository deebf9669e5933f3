package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const twilioDefaultBase = "https://api.twilio.com"

// TwilioConfig carries the settings for TwilioSender.  BaseURL points the
// client at another host (a regional edge or a local stub); empty means
// api.twilio.com.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	from   string
	client *twilio.RestClient
}

// NewTwilioSender returns an SMSSender for cfg.  A nil client uses a
// default client with a 10s timeout.
func NewTwilioSender(cfg TwilioConfig, client *http.Client) *TwilioSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base != "" && base != twilioDefaultBase {
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			hc := *client
			hc.Transport = rebaseTransport{base: u, next: transportOf(client)}
			client = &hc
		}
	}

	c := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  client,
	}
	c.SetAccountSid(cfg.AccountSID)

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
		Client:   c,
	})
	return &TwilioSender{from: cfg.From, client: rest}
}

// Send implements SMSSender.
func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}

// rebaseTransport sends every request to base instead of the host the
// SDK chose, keeping path and query.
type rebaseTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (r rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.base.Scheme
	out.URL.Host = r.base.Host
	out.Host = r.base.Host
	return r.next.RoundTrip(out)
}

func transportOf(c *http.Client) http.RoundTripper {
	if c.Transport != nil {
		return c.Transport
	}
	return http.DefaultTransport
}
