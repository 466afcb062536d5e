package pledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telepledge/donation-relay/internal/card"
	"github.com/telepledge/donation-relay/internal/charity"
	"github.com/telepledge/donation-relay/internal/events"
	"github.com/telepledge/donation-relay/internal/stripe"
)

type fakeAuthorizer struct {
	outcome stripe.Outcome
	calls   int
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, raw string) stripe.Outcome {
	f.calls++
	return f.outcome
}

type fakeSubmitter struct {
	outcome   charity.Outcome
	calls     int
	lastToken string
	lastUSD   int
}

func (f *fakeSubmitter) Submit(ctx context.Context, paymentMethodID, email, name string, amountUSD int) charity.Outcome {
	f.calls++
	f.lastToken = paymentMethodID
	f.lastUSD = amountUSD
	return f.outcome
}

type fakePublisher struct {
	published []events.Envelope
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key string, evt events.Envelope) error {
	f.published = append(f.published, evt)
	return nil
}

func approvedOutcome() stripe.Outcome {
	return stripe.Outcome{
		Approved:        true,
		Reason:          "Approved",
		PaymentMethodID: "pm_abc",
		Card:            &card.Card{Number: "4242424242424242", ExpMonth: "12", ExpYear: "26", CVC: "123"},
	}
}

func TestCheckThenSubmitSkipsSubmissionOnDecline(t *testing.T) {
	auth := &fakeAuthorizer{outcome: stripe.Outcome{Approved: false, Reason: "card declined"}}
	sub := &fakeSubmitter{}
	p := New(auth, sub, nil, nil, "donations.v1", 5)

	res := p.CheckThenSubmit(context.Background(), "owner-1", "raw", "a@b.com", "Jane Doe")

	assert.Equal(t, 0, sub.calls, "submission must not run on decline")
	assert.Nil(t, res.Submission)
	assert.False(t, res.Succeeded())
	assert.Equal(t, "card declined", res.Reason())
}

func TestCheckThenSubmitSubmitsExactlyOnceWithToken(t *testing.T) {
	auth := &fakeAuthorizer{outcome: approvedOutcome()}
	sub := &fakeSubmitter{outcome: charity.Outcome{Submitted: true, Reason: "Donation successful! Thank you."}}
	p := New(auth, sub, nil, nil, "donations.v1", 5)

	res := p.CheckThenSubmit(context.Background(), "owner-1", "raw", "a@b.com", "Jane Doe")

	require.Equal(t, 1, sub.calls)
	assert.Equal(t, "pm_abc", sub.lastToken)
	assert.Equal(t, 5, sub.lastUSD)
	require.NotNil(t, res.Submission)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "Donation successful! Thank you.", res.Reason())
}

func TestCheckOnlyNeverSubmits(t *testing.T) {
	auth := &fakeAuthorizer{outcome: approvedOutcome()}
	sub := &fakeSubmitter{}
	p := New(auth, sub, nil, nil, "donations.v1", 5)

	out := p.CheckOnly(context.Background(), "owner-1", "raw")

	assert.True(t, out.Approved)
	assert.Equal(t, 1, auth.calls)
	assert.Equal(t, 0, sub.calls)
}

func TestCheckThenSubmitPublishesCompletedEvent(t *testing.T) {
	auth := &fakeAuthorizer{outcome: approvedOutcome()}
	sub := &fakeSubmitter{outcome: charity.Outcome{Submitted: true, Reason: "Donation successful! Thank you."}}
	pub := &fakePublisher{}
	p := New(auth, sub, pub, nil, "donations.v1", 5)

	p.CheckThenSubmit(context.Background(), "owner-1", "raw", "a@b.com", "Jane Doe")

	require.Len(t, pub.published, 1)
	evt := pub.published[0]
	assert.Equal(t, events.EventDonationCompleted, evt.EventType)
	assert.Equal(t, "owner-1", evt.AggregateID)
	data, ok := evt.Data.(events.DonationData)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", data.Email)
	assert.Equal(t, "424242xxxxxx4242", data.MaskedCard)
}

func TestCheckThenSubmitPublishesFailedEventOnDecline(t *testing.T) {
	auth := &fakeAuthorizer{outcome: stripe.Outcome{Approved: false, Reason: "card declined"}}
	pub := &fakePublisher{}
	p := New(auth, &fakeSubmitter{}, pub, nil, "donations.v1", 5)

	p.CheckThenSubmit(context.Background(), "owner-1", "raw", "a@b.com", "Jane Doe")

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.EventDonationFailed, pub.published[0].EventType)
}
