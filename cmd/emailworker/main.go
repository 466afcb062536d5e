package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/telepledge/donation-relay/internal/email"
	"github.com/telepledge/donation-relay/internal/events"
)

func main() {
	log.Println("Email worker starting...")
	startConsumer()
}

func startConsumer() {
	brokers := splitAndTrim(getenv("KAFKA_BROKERS", "localhost:9092"))
	topic := getenv("KAFKA_DONATIONS_TOPIC", "donations.v1")
	group := getenv("KAFKA_EMAIL_GROUP_ID", "email-workers")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1e3, MaxBytes: 10e6,
	})
	defer reader.Close()

	sender := pickSender()
	log.Printf("[email-worker] consuming %s (group=%s)", topic, group)
	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("[email-worker] read error: %v", err)
			return
		}

		var evt events.Envelope
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			log.Printf("[email-worker] bad json: %v; payload=%s", err, string(msg.Value))
			continue
		}

		switch evt.EventType {
		case events.EventDonationCompleted:
			handleDonationCompleted(sender, evt)
		case events.EventDonationFailed:
			handleDonationFailed(sender, evt)
		default:
			// ignore other event types
		}
	}
}

func handleDonationCompleted(sender email.Sender, evt events.Envelope) {
	data := toMap(evt.Data)
	to := recipient(data)
	amount := toInt(data["amountUsd"])
	masked := toString(data["maskedCard"])
	reason := toString(data["reason"])

	body := email.RenderReceiptEmail(amount, masked, reason)
	if err := sender.Send(to, "Your donation receipt", body); err != nil {
		log.Printf("[email-worker] send failed: %v", err)
		return
	}

	log.Printf("[email-worker] sent DonationCompleted email to=%s amount=%d", to, amount)
}

func handleDonationFailed(sender email.Sender, evt events.Envelope) {
	data := toMap(evt.Data)
	to := recipient(data)
	masked := toString(data["maskedCard"])
	reason := toString(data["reason"])

	body := email.RenderFailureEmail(masked, reason)
	if err := sender.Send(to, "Your donation could not be completed", body); err != nil {
		log.Printf("[email-worker] send failed: %v", err)
		return
	}

	log.Printf("[email-worker] sent DonationFailed email to=%s", to)
}

// recipient is the donor email from the event, with an env override for
// demos without real traffic.
func recipient(data map[string]interface{}) string {
	if to := toString(data["email"]); to != "" {
		return to
	}
	return getenv("DEMO_TO_EMAIL", "test@example.local")
}

func pickSender() email.Sender {
	// Use SMTP if configured; else fallback to log
	if os.Getenv("SMTP_HOST") != "" || os.Getenv("SMTP_PORT") != "" {
		return email.NewSMTPSender()
	}
	return email.LogSender{}
}

// helpers
func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func toMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toInt(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	}
	return 0
}
