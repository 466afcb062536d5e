// Package charity implements the pledge submission client. It redeems the
// payment method token obtained from authorization by posting the donation
// form to the charity gateway.
package charity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the live donation endpoint.
	DefaultBaseURL = "https://www.charitywater.org"

	// DefaultCampaignID matches the reference donation form.
	DefaultCampaignID = "a5826748-d59d-4f86-a042-1e4c030720d5"

	requestTimeout = 30 * time.Second
)

// Outcome is the result of one submission attempt. RawResponse carries the
// gateway body on non-200 responses for logging and auditing.
type Outcome struct {
	Submitted   bool
	Reason      string
	RawResponse string
}

// Client talks to the donation gateway.
type Client struct {
	baseURL    string
	campaignID string
	http       *http.Client
}

// NewClient builds a Client for the given gateway base URL and campaign.
func NewClient(baseURL, campaignID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		campaignID: campaignID,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SplitName applies the donation form's name heuristic: with an internal
// space the first token is the given name and the rest, re-joined by
// spaces, is the family name; otherwise the whole string is the given name.
func SplitName(name string) (given, family string) {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return strings.TrimSpace(name), ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// Submit posts one donation for amountUSD whole dollars using the payment
// method token from an approved authorization. Success is signaled purely
// by HTTP 200; a business-level failure hidden behind a 200 is not
// detected here, which mirrors the gateway's observed contract.
func (c *Client) Submit(ctx context.Context, paymentMethodID, email, name string, amountUSD int) Outcome {
	given, family := SplitName(name)

	form := url.Values{}
	form.Set("country", "us")
	form.Set("payment_intent[email]", email)
	form.Set("payment_intent[amount]", strconv.Itoa(amountUSD*100))
	form.Set("payment_intent[currency]", "usd")
	form.Set("payment_intent[payment_method]", paymentMethodID)
	form.Set("donation_form[amount]", strconv.Itoa(amountUSD))
	form.Set("donation_form[email]", email)
	form.Set("donation_form[name]", given)
	form.Set("donation_form[surname]", family)
	form.Set("donation_form[campaign_id]", c.campaignID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/donate/stripe", strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{Submitted: false, Reason: fmt.Sprintf("An error occurred during donation submission: %v", err)}
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Submitted: false, Reason: fmt.Sprintf("An error occurred during donation submission: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return Outcome{Submitted: true, Reason: "Donation successful! Thank you."}
	}

	body, _ := io.ReadAll(resp.Body)
	return Outcome{
		Submitted:   false,
		Reason:      "Donation submission failed.",
		RawResponse: string(body),
	}
}
