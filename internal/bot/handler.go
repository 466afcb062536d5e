// Package bot holds the conversation logic behind the chat commands and
// the thin Telegram binding that drives it. The handlers are transport
// agnostic: they take a chat identifier and text and return reply text,
// which keeps the whole flow testable without a live bot.
package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/telepledge/donation-relay/internal/card"
	"github.com/telepledge/donation-relay/internal/pledge"
	"github.com/telepledge/donation-relay/internal/session"
)

// Handler routes chat triggers into the pledge pipeline.
type Handler struct {
	pipeline *pledge.Pipeline
	sessions *session.Manager
}

func NewHandler(p *pledge.Pipeline, s *session.Manager) *Handler {
	return &Handler{pipeline: p, sessions: s}
}

// Start renders the welcome message.
func (h *Handler) Start() string {
	return "Welcome!\n\n" +
		"🔹 To check a card: /chk CARD|MM|YYYY|CVV\n" +
		"🔹 To make a donation: /donate"
}

// Check runs the single-shot card check and renders the status block.
func (h *Handler) Check(ctx context.Context, owner int64, args string) string {
	args = strings.TrimSpace(args)
	if args == "" {
		return "Please provide a card to check.\nUsage: /chk 1234...|MM|YY|CVV"
	}

	out := h.pipeline.CheckOnly(ctx, strconv.FormatInt(owner, 10), args)

	statusLine := "Declined ❌"
	gatewayLine := "Stripe Auth ❌"
	if out.Approved {
		statusLine = "Approved ✅"
		gatewayLine = "Stripe Auth ✅"
	}
	cardDisplay := "Invalid Format"
	if out.Card != nil {
		cardDisplay = card.Mask(out.Card.Number)
	}

	return fmt.Sprintf("%s\n\nCard: %s\nGateway: %s\nResponse: %s",
		statusLine, cardDisplay, gatewayLine, out.Reason)
}

// Donate opens the multi-turn flow and prompts for the 3-line input.
func (h *Handler) Donate(owner int64) string {
	h.sessions.Begin(owner)
	return fmt.Sprintf(
		"To make a $%d donation, provide the details in the following format, with each item on a new line:\n\n"+
			"CC_NUMBER|MM|YYYY|CVV\n"+
			"your.email@example.com\n"+
			"Your Full Name\n\n"+
			"Type /cancel to exit.",
		h.pipeline.AmountUSD(),
	)
}

// Cancel ends the open flow, if any.
func (h *Handler) Cancel(owner int64) string {
	h.sessions.End(owner)
	return "Operation cancelled."
}

// Message handles free text. It only acts while a donate flow is open for
// owner; otherwise it reports handled=false and the transport drops the
// message. A message that is not exactly three lines re-prompts and keeps
// the session open; a well-formed one runs the pipeline and closes it.
// notify, when non-nil, receives an interim status line just before the
// pipeline runs.
func (h *Handler) Message(ctx context.Context, owner int64, text string, notify func(string)) (reply string, handled bool) {
	if h.sessions.Get(owner) == nil {
		return "", false
	}

	lines := splitLines(text)
	if len(lines) != 3 {
		return "Incorrect format. Please try again or type /cancel.", true
	}

	if notify != nil {
		notify("Processing your donation, please wait...")
	}
	rawCard, email, name := strings.TrimSpace(lines[0]), strings.TrimSpace(lines[1]), strings.TrimSpace(lines[2])
	res := h.pipeline.CheckThenSubmit(ctx, strconv.FormatInt(owner, 10), rawCard, email, name)
	h.sessions.End(owner)

	if res.Succeeded() {
		return fmt.Sprintf("✅ Success: %s", res.Reason()), true
	}
	if res.Submission != nil && res.Submission.RawResponse != "" {
		log.Printf("[Bot] donation failed for chat %d: %s", owner, res.Submission.RawResponse)
	}
	return fmt.Sprintf("❌ Error: %s", res.Reason()), true
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimSpace(text), "\n")
}
