// Package stripe implements the card authorization client. One call, one
// form-encoded POST to the payment_methods endpoint; the response is folded
// into an Outcome value and no fault ever escapes to the caller.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/telepledge/donation-relay/internal/card"
	"github.com/telepledge/donation-relay/internal/ident"
)

const (
	// DefaultBaseURL is the live gateway. Tests point the client at a fake.
	DefaultBaseURL = "https://api.stripe.com"

	paymentUserAgent = "stripe.js/f5ddf352d5; stripe-js-v3/f5ddf352d5; card-element"
	requestTimeout   = 20 * time.Second
)

// Outcome is the tri-state result of an authorization attempt.
// PaymentMethodID is set if and only if Approved is true. Card is nil when
// the input never parsed, so a network call was not attempted.
type Outcome struct {
	Approved        bool
	Reason          string
	PaymentMethodID string
	Card            *card.Card
}

// Client talks to the authorization gateway.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewClient builds a Client for the given gateway base URL and publishable
// key. The underlying transport is traced and bounded by a 20s timeout.
func NewClient(baseURL, publishableKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     publishableKey,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Authorize parses raw card input and, if it has a valid shape, performs a
// single authorization request. Every failure mode comes back as an
// Outcome; the error return of Parse is folded in too.
func (c *Client) Authorize(ctx context.Context, raw string) Outcome {
	parsed, err := card.Parse(raw)
	if err != nil {
		return Outcome{Approved: false, Reason: err.Error()}
	}

	// Fresh correlation identifiers for every attempt.
	corr := ident.NewCorrelation()

	form := url.Values{}
	form.Set("type", "card")
	form.Set("billing_details[email]", "check@test.com")
	form.Set("billing_details[name]", "Test Check")
	form.Set("card[number]", parsed.Number)
	form.Set("card[cvc]", parsed.CVC)
	form.Set("card[exp_month]", parsed.ExpMonth)
	form.Set("card[exp_year]", parsed.ExpYear)
	form.Set("guid", corr.Guid)
	form.Set("muid", corr.Muid)
	form.Set("sid", corr.Sid)
	form.Set("payment_user_agent", paymentUserAgent)
	form.Set("key", c.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_methods", strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{Approved: false, Reason: fmt.Sprintf("An unexpected error occurred: %v", err), Card: &parsed}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://js.stripe.com")
	req.Header.Set("Referer", "https://js.stripe.com/")

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Approved: false, Reason: fmt.Sprintf("Network error: %v", err), Card: &parsed}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Approved: false, Reason: fmt.Sprintf("Network error: %v", err), Card: &parsed}
	}

	var decoded struct {
		ID    string `json:"id"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		log.Printf("[Stripe] undecodable response (status %d): %v", resp.StatusCode, err)
		return Outcome{Approved: false, Reason: fmt.Sprintf("An unexpected error occurred: %v", err), Card: &parsed}
	}

	if resp.StatusCode == http.StatusOK && decoded.ID != "" {
		return Outcome{Approved: true, Reason: "Approved", PaymentMethodID: decoded.ID, Card: &parsed}
	}

	reason := decoded.Error.Message
	if reason == "" {
		reason = "An unknown error occurred."
	}
	return Outcome{Approved: false, Reason: reason, Card: &parsed}
}
