package bdd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

func (w *DonationWorld) registerDonationSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the authorization gateway approves cards with token "([^"]*)"$`, w.gatewayApproves)
	sc.Step(`^the authorization gateway declines cards with message "([^"]*)"$`, w.gatewayDeclines)
	sc.Step(`^the donation gateway accepts submissions$`, w.gatewayAcceptsSubmissions)
	sc.Step(`^the donation gateway rejects submissions$`, w.gatewayRejectsSubmissions)

	sc.Step(`^the user checks card "([^"]*)"$`, w.userChecksCard)
	sc.Step(`^the user starts the donate flow$`, w.userStartsDonateFlow)
	sc.Step(`^the user cancels$`, w.userCancels)
	sc.Step(`^the user sends:$`, w.userSends)

	sc.Step(`^the reply contains "([^"]*)"$`, w.replyContains)
	sc.Step(`^the donate session is still open$`, w.sessionStillOpen)
	sc.Step(`^the donate session is closed$`, w.sessionClosed)
	sc.Step(`^the authorization gateway saw (\d+) requests?$`, w.authGatewaySawRequests)
	sc.Step(`^the donation gateway saw (\d+) requests?$`, w.donationGatewaySawRequests)
	sc.Step(`^the donation gateway received name "([^"]*)" surname "([^"]*)" and amount "([^"]*)" cents$`, w.donationGatewayReceived)
}

func (w *DonationWorld) gatewayApproves(token string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.approve = true
	w.token = token
	return nil
}

func (w *DonationWorld) gatewayDeclines(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.approve = false
	w.declineMsg = message
	return nil
}

func (w *DonationWorld) gatewayAcceptsSubmissions() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.acceptSub = true
	return nil
}

func (w *DonationWorld) gatewayRejectsSubmissions() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.acceptSub = false
	return nil
}

func (w *DonationWorld) userChecksCard(raw string) error {
	w.lastReply = w.handler.Check(context.Background(), bddChatID, raw)
	return nil
}

func (w *DonationWorld) userStartsDonateFlow() error {
	w.lastReply = w.handler.Donate(bddChatID)
	return nil
}

func (w *DonationWorld) userCancels() error {
	w.lastReply = w.handler.Cancel(bddChatID)
	return nil
}

func (w *DonationWorld) userSends(doc *godog.DocString) error {
	reply, handled := w.handler.Message(context.Background(), bddChatID, doc.Content, nil)
	if !handled {
		return fmt.Errorf("message was not handled; no donate flow open")
	}
	w.lastReply = reply
	return nil
}

func (w *DonationWorld) replyContains(want string) error {
	if !strings.Contains(w.lastReply, want) {
		return fmt.Errorf("reply %q does not contain %q", w.lastReply, want)
	}
	return nil
}

func (w *DonationWorld) sessionStillOpen() error {
	if w.sessions.Get(bddChatID) == nil {
		return fmt.Errorf("expected an open donate session")
	}
	return nil
}

func (w *DonationWorld) sessionClosed() error {
	if w.sessions.Get(bddChatID) != nil {
		return fmt.Errorf("expected the donate session to be closed")
	}
	return nil
}

func (w *DonationWorld) authGatewaySawRequests(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.authCalls != n {
		return fmt.Errorf("authorization gateway saw %d requests, want %d", w.authCalls, n)
	}
	return nil
}

func (w *DonationWorld) donationGatewaySawRequests(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitCalls != n {
		return fmt.Errorf("donation gateway saw %d requests, want %d", w.submitCalls, n)
	}
	return nil
}

func (w *DonationWorld) donationGatewayReceived(name, surname, cents string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastSubmit == nil {
		return fmt.Errorf("no submission was received")
	}
	if got := w.lastSubmit.Get("donation_form[name]"); got != name {
		return fmt.Errorf("name = %q, want %q", got, name)
	}
	if got := w.lastSubmit.Get("donation_form[surname]"); got != surname {
		return fmt.Errorf("surname = %q, want %q", got, surname)
	}
	if got := w.lastSubmit.Get("payment_intent[amount]"); got != cents {
		return fmt.Errorf("amount = %q cents, want %q", got, cents)
	}
	return nil
}
