package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telepledge/donation-relay/internal/card"
	"github.com/telepledge/donation-relay/internal/charity"
	"github.com/telepledge/donation-relay/internal/pledge"
	"github.com/telepledge/donation-relay/internal/session"
	"github.com/telepledge/donation-relay/internal/stripe"
)

type countingAuthorizer struct {
	outcome stripe.Outcome
	calls   int
}

func (c *countingAuthorizer) Authorize(ctx context.Context, raw string) stripe.Outcome {
	c.calls++
	return c.outcome
}

type countingSubmitter struct {
	outcome charity.Outcome
	calls   int
}

func (c *countingSubmitter) Submit(ctx context.Context, paymentMethodID, email, name string, amountUSD int) charity.Outcome {
	c.calls++
	return c.outcome
}

func newTestHandler(auth pledge.Authorizer, sub pledge.Submitter) (*Handler, *session.Manager) {
	sessions := session.NewManager()
	p := pledge.New(auth, sub, nil, nil, "donations.v1", 5)
	return NewHandler(p, sessions), sessions
}

func TestMessageWithoutSessionIsIgnored(t *testing.T) {
	h, _ := newTestHandler(&countingAuthorizer{}, &countingSubmitter{})
	_, handled := h.Message(context.Background(), 1, "hello", nil)
	assert.False(t, handled)
}

func TestDonatePromptMentionsAmountAndCancel(t *testing.T) {
	h, sessions := newTestHandler(&countingAuthorizer{}, &countingSubmitter{})
	prompt := h.Donate(1)
	assert.Contains(t, prompt, "$5 donation")
	assert.Contains(t, prompt, "/cancel")
	assert.NotNil(t, sessions.Get(1))
}

func TestWrongLineCountReprompts(t *testing.T) {
	auth := &countingAuthorizer{}
	h, sessions := newTestHandler(auth, &countingSubmitter{})
	h.Donate(1)

	for _, text := range []string{
		"one line",
		"one\ntwo",
		"one\ntwo\nthree\nfour",
	} {
		reply, handled := h.Message(context.Background(), 1, text, nil)
		require.True(t, handled)
		assert.Contains(t, reply, "Incorrect format")
		require.NotNil(t, sessions.Get(1), "session must stay open after %q", text)
		assert.Equal(t, session.AwaitingDetails, sessions.Get(1).State)
	}
	assert.Equal(t, 0, auth.calls, "pipeline must not run on malformed input")
}

func TestMalformedRetryThenValidRunsPipelineOnce(t *testing.T) {
	auth := &countingAuthorizer{outcome: stripe.Outcome{Approved: false, Reason: "card declined"}}
	h, sessions := newTestHandler(auth, &countingSubmitter{})
	h.Donate(1)

	_, _ = h.Message(context.Background(), 1, "only\ntwo lines", nil)
	require.NotNil(t, sessions.Get(1))

	reply, handled := h.Message(context.Background(), 1, "4242|12|26|123\na@b.com\nJane Doe", nil)
	require.True(t, handled)
	assert.Equal(t, 1, auth.calls)
	assert.Contains(t, reply, "card declined")
	assert.Nil(t, sessions.Get(1), "session must end after a well-formed attempt")
}

func TestMessageNotifiesBeforePipelineRuns(t *testing.T) {
	auth := &countingAuthorizer{outcome: stripe.Outcome{Approved: false, Reason: "card declined"}}
	h, _ := newTestHandler(auth, &countingSubmitter{})
	h.Donate(1)

	var notices []string
	notify := func(text string) {
		notices = append(notices, text)
		assert.Equal(t, 0, auth.calls, "notice must arrive before the pipeline runs")
	}

	_, _ = h.Message(context.Background(), 1, "only\ntwo lines", notify)
	assert.Empty(t, notices, "no interim notice on malformed input")

	_, handled := h.Message(context.Background(), 1, "4242|12|26|123\na@b.com\nJane Doe", notify)
	require.True(t, handled)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Processing your donation")
}

func TestCancelEndsSession(t *testing.T) {
	h, sessions := newTestHandler(&countingAuthorizer{}, &countingSubmitter{})
	h.Donate(1)
	reply := h.Cancel(1)
	assert.Equal(t, "Operation cancelled.", reply)
	assert.Nil(t, sessions.Get(1))
}

func TestDonateReentryResetsSession(t *testing.T) {
	h, sessions := newTestHandler(&countingAuthorizer{}, &countingSubmitter{})
	h.Donate(1)
	first := sessions.Get(1)
	h.Donate(1)
	assert.NotSame(t, first, sessions.Get(1))
}

func TestCheckWithoutArgs(t *testing.T) {
	auth := &countingAuthorizer{}
	h, _ := newTestHandler(auth, &countingSubmitter{})
	reply := h.Check(context.Background(), 1, "  ")
	assert.Contains(t, reply, "Usage:")
	assert.Equal(t, 0, auth.calls)
}

func TestCheckRendersStatusBlock(t *testing.T) {
	h, _ := newTestHandler(&countingAuthorizer{outcome: stripe.Outcome{
		Approved:        true,
		Reason:          "Approved",
		PaymentMethodID: "pm_1",
		Card:            mustCard(t, "4111111111111111|12|2026|123"),
	}}, &countingSubmitter{})

	reply := h.Check(context.Background(), 1, "4111111111111111|12|2026|123")
	assert.Contains(t, reply, "Approved ✅")
	assert.Contains(t, reply, "Card: 411111xxxxxx1111")
	assert.Contains(t, reply, "Gateway: Stripe Auth ✅")
	assert.Contains(t, reply, "Response: Approved")
}

func TestCheckRendersInvalidFormat(t *testing.T) {
	h, _ := newTestHandler(&countingAuthorizer{outcome: stripe.Outcome{
		Approved: false,
		Reason:   "invalid format, expected CC|MM|YYYY|CVV",
	}}, &countingSubmitter{})

	reply := h.Check(context.Background(), 1, "nonsense")
	assert.Contains(t, reply, "Declined ❌")
	assert.Contains(t, reply, "Card: Invalid Format")
}

// End-to-end: real clients against fake gateways, full donate flow.
func TestDonateFlowEndToEnd(t *testing.T) {
	var submitForm map[string]string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment_methods":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"pm_e2e"}`))
		case "/donate/stripe":
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			submitForm = map[string]string{}
			for k := range r.PostForm {
				submitForm[k] = r.PostForm.Get(k)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer gateway.Close()

	sessions := session.NewManager()
	p := pledge.New(
		stripe.NewClient(gateway.URL, "pk_test"),
		charity.NewClient(gateway.URL, "campaign-e2e"),
		nil, nil, "donations.v1", 5,
	)
	h := NewHandler(p, sessions)

	h.Donate(42)
	reply, handled := h.Message(context.Background(), 42, "4242424242424242/12/2026/123\na@b.com\nJane Doe", nil)

	require.True(t, handled)
	assert.True(t, strings.Contains(reply, "successful"), "reply = %q", reply)
	assert.Nil(t, sessions.Get(42), "session must be terminal after completion")

	assert.Equal(t, "pm_e2e", submitForm["payment_intent[payment_method]"])
	assert.Equal(t, "500", submitForm["payment_intent[amount]"])
	assert.Equal(t, "Jane", submitForm["donation_form[name]"])
	assert.Equal(t, "Doe", submitForm["donation_form[surname]"])
}

func mustCard(t *testing.T, raw string) *card.Card {
	t.Helper()
	c, err := card.Parse(raw)
	require.NoError(t, err)
	return &c
}
