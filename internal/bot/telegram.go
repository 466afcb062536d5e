package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Poller drives the Handler from Telegram long polling. Updates are
// serialized per chat so one chat's donate flow never races itself, while
// different chats are handled concurrently.
type Poller struct {
	api     *tgbotapi.BotAPI
	handler *Handler
}

func NewPoller(api *tgbotapi.BotAPI, handler *Handler) *Poller {
	return &Poller{api: api, handler: handler}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := p.api.GetUpdatesChan(cfg)
	seq := newSequencer(ctx)

	log.Printf("[Bot] polling as @%s", p.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			seq.Do(msg.Chat.ID, func() { p.dispatch(ctx, msg) })
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		p.send(chatID, p.handler.Start())
	case "chk":
		// Let the user know the bot is working, then edit in the result.
		interim := p.send(chatID, "Checking card...")
		result := p.handler.Check(ctx, chatID, msg.CommandArguments())
		if interim != nil {
			p.edit(chatID, interim.MessageID, result)
		} else {
			p.send(chatID, result)
		}
	case "donate":
		p.send(chatID, p.handler.Donate(chatID))
	case "cancel":
		p.send(chatID, p.handler.Cancel(chatID))
	case "":
		notify := func(text string) { p.send(chatID, text) }
		if reply, handled := p.handler.Message(ctx, chatID, msg.Text, notify); handled {
			p.send(chatID, reply)
		}
	default:
		// Unknown commands are a no-op for this machine.
	}
}

func (p *Poller) send(chatID int64, text string) *tgbotapi.Message {
	sent, err := p.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		log.Printf("[Bot] send to chat %d failed: %v", chatID, err)
		return nil
	}
	return &sent
}

func (p *Poller) edit(chatID int64, messageID int, text string) {
	if _, err := p.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		log.Printf("[Bot] edit in chat %d failed: %v", chatID, err)
	}
}
