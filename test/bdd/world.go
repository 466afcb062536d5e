package bdd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/cucumber/godog"

	"github.com/telepledge/donation-relay/internal/bot"
	"github.com/telepledge/donation-relay/internal/charity"
	"github.com/telepledge/donation-relay/internal/pledge"
	"github.com/telepledge/donation-relay/internal/session"
	"github.com/telepledge/donation-relay/internal/stripe"
)

// bddChatID is the single chat every scenario converses from.
const bddChatID int64 = 9001

// DonationWorld wires the real pipeline against a fake gateway serving
// both the authorization and submission endpoints. Each scenario gets a
// fresh world.
type DonationWorld struct {
	gateway  *httptest.Server
	handler  *bot.Handler
	sessions *session.Manager

	mu         sync.Mutex
	approve    bool
	token      string
	declineMsg string
	acceptSub  bool

	authCalls   int
	submitCalls int
	lastSubmit  url.Values

	lastReply string
}

func NewDonationWorld() *DonationWorld {
	w := &DonationWorld{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/payment_methods", func(rw http.ResponseWriter, r *http.Request) {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.authCalls++
		rw.Header().Set("Content-Type", "application/json")
		if w.approve {
			_ = json.NewEncoder(rw).Encode(map[string]string{"id": w.token})
			return
		}
		rw.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"error": map[string]string{"message": w.declineMsg},
		})
	})
	mux.HandleFunc("/donate/stripe", func(rw http.ResponseWriter, r *http.Request) {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.submitCalls++
		_ = r.ParseForm()
		w.lastSubmit = r.PostForm
		if w.acceptSub {
			rw.WriteHeader(http.StatusOK)
			return
		}
		rw.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = rw.Write([]byte("submission rejected"))
	})
	w.gateway = httptest.NewServer(mux)

	w.sessions = session.NewManager()
	pipeline := pledge.New(
		stripe.NewClient(w.gateway.URL, "pk_bdd"),
		charity.NewClient(w.gateway.URL, "campaign-bdd"),
		nil, nil, "donations.v1", 5,
	)
	w.handler = bot.NewHandler(pipeline, w.sessions)
	return w
}

func (w *DonationWorld) Register(sc *godog.ScenarioContext) {
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		w.gateway.Close()
		return ctx, nil
	})

	w.registerDonationSteps(sc)
}
