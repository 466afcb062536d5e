// Package pledge composes the authorization and submission clients into
// the two public pipeline operations. Submission is strictly gated on an
// approved authorization and is attempted at most once per invocation.
package pledge

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/telepledge/donation-relay/internal/card"
	"github.com/telepledge/donation-relay/internal/charity"
	"github.com/telepledge/donation-relay/internal/events"
	"github.com/telepledge/donation-relay/internal/storage/postgres"
	"github.com/telepledge/donation-relay/internal/stripe"
)

// Authorizer validates a card and yields a payment method token on
// approval. Implemented by *stripe.Client.
type Authorizer interface {
	Authorize(ctx context.Context, raw string) stripe.Outcome
}

// Submitter redeems a payment method token as a donation. Implemented by
// *charity.Client.
type Submitter interface {
	Submit(ctx context.Context, paymentMethodID, email, name string, amountUSD int) charity.Outcome
}

// Publisher emits donation outcome events. Implemented by
// *events.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, evt events.Envelope) error
}

// Result is what CheckThenSubmit returns. Submission is nil whenever the
// authorization did not approve, so the donation was never attempted.
type Result struct {
	Auth       stripe.Outcome
	Submission *charity.Outcome
}

// Succeeded reports whether the donation went through end to end.
func (r Result) Succeeded() bool {
	return r.Auth.Approved && r.Submission != nil && r.Submission.Submitted
}

// Reason is the human-readable outcome line for the whole invocation.
func (r Result) Reason() string {
	if r.Submission != nil {
		return r.Submission.Reason
	}
	return r.Auth.Reason
}

// Pipeline wires the two clients together with the event stream and the
// optional attempts ledger. Producer and repository may be nil.
type Pipeline struct {
	auth      Authorizer
	submitter Submitter
	publisher Publisher
	repo      *postgres.Repository
	topic     string
	amountUSD int
}

func New(auth Authorizer, submitter Submitter, publisher Publisher, repo *postgres.Repository, topic string, amountUSD int) *Pipeline {
	return &Pipeline{
		auth:      auth,
		submitter: submitter,
		publisher: publisher,
		repo:      repo,
		topic:     topic,
		amountUSD: amountUSD,
	}
}

var tracer = otel.Tracer("donation-relay/pledge")

// CheckOnly runs the single-shot authorization check. owner identifies the
// requesting chat for auditing only.
func (p *Pipeline) CheckOnly(ctx context.Context, owner, raw string) stripe.Outcome {
	ctx, span := tracer.Start(ctx, "pledge.CheckOnly")
	defer span.End()

	out := p.auth.Authorize(ctx, raw)
	span.SetAttributes(attribute.Bool("pledge.approved", out.Approved))

	p.record(ctx, owner, "check", out, nil)
	return out
}

// CheckThenSubmit authorizes the card and, only on approval, submits the
// donation with the obtained token. The two calls are sequential; a
// declined or failed authorization short-circuits with Submission nil.
func (p *Pipeline) CheckThenSubmit(ctx context.Context, owner, raw, email, name string) Result {
	ctx, span := tracer.Start(ctx, "pledge.CheckThenSubmit")
	defer span.End()

	res := Result{Auth: p.auth.Authorize(ctx, raw)}
	span.SetAttributes(attribute.Bool("pledge.approved", res.Auth.Approved))

	if res.Auth.Approved {
		sub := p.submitter.Submit(ctx, res.Auth.PaymentMethodID, email, name, p.amountUSD)
		res.Submission = &sub
		span.SetAttributes(attribute.Bool("pledge.submitted", sub.Submitted))
	}

	p.record(ctx, owner, "donation", res.Auth, res.Submission)
	p.publish(ctx, owner, email, name, res)
	return res
}

// AmountUSD is the configured donation amount in whole dollars.
func (p *Pipeline) AmountUSD() int { return p.amountUSD }

func (p *Pipeline) record(ctx context.Context, owner, kind string, auth stripe.Outcome, sub *charity.Outcome) {
	if p.repo == nil {
		return
	}
	a := postgres.Attempt{
		ID:         uuid.NewString(),
		Owner:      owner,
		Kind:       kind,
		Approved:   auth.Approved,
		Reason:     auth.Reason,
		OccurredAt: time.Now().UTC(),
	}
	if auth.Card != nil {
		a.MaskedCard = card.Mask(auth.Card.Number)
	}
	if sub != nil {
		a.Submitted = sub.Submitted
		a.Reason = sub.Reason
	}
	if err := p.repo.RecordAttempt(ctx, a); err != nil {
		log.Printf("[Pledge] ledger write failed: %v", err)
	}
}

func (p *Pipeline) publish(ctx context.Context, owner, email, name string, res Result) {
	if p.publisher == nil {
		return
	}
	eventType := events.EventDonationFailed
	if res.Succeeded() {
		eventType = events.EventDonationCompleted
	}
	masked := ""
	if res.Auth.Card != nil {
		masked = card.Mask(res.Auth.Card.Number)
	}
	evt := events.Envelope{
		EventType:    eventType,
		EventVersion: "v1",
		AggregateID:  owner,
		Data: events.DonationData{
			Email:      email,
			Name:       name,
			AmountUSD:  p.amountUSD,
			MaskedCard: masked,
			Reason:     res.Reason(),
		},
	}
	if err := p.publisher.Publish(ctx, p.topic, owner, evt); err != nil {
		log.Printf("[Pledge] event publish failed: %v", err)
	}
}
