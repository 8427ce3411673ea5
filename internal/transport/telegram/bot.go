package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/service/agent"
	"github.com/sandevgo/loopbot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Bot struct {
	bot     *tele.Bot
	cfg     *config.TelegramConfig
	agent   *agent.Agent
	router  core.CmdRouter
	sender  *sender
	ownerID int64

	mu      sync.Mutex
	pending chan string // non-nil while Ask waits for the owner's reply
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	a *agent.Agent,
	router core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		cfg:     cfg,
		agent:   a,
		router:  router,
		sender:  newSender(b),
		ownerID: cfg.OwnerID,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	text := c.Text()

	// A pending Ask consumes the next owner message as its answer.
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()
	if pending != nil {
		pending <- text
		return nil
	}

	if reply, handled := b.router.Execute(ctx, text); handled {
		return b.sender.sendMarkdown(ctx, c.Chat(), reply, false)
	}

	_ = c.Notify(tele.Typing)

	response := b.agent.ProcessUserInput(ctx, text)
	if response == "" {
		return nil
	}

	if err := b.sender.sendMarkdown(ctx, c.Chat(), response, false); err != nil {
		logger.Error().Err(err).Msg("failed to send telegram message")
	}
	return nil
}

// Send pushes a message to the owner. Reports whether delivery succeeded.
func (b *Bot) Send(ctx context.Context, text string) bool {
	err := b.sender.sendMarkdown(ctx, &tele.User{ID: b.ownerID}, text, true)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to notify owner")
		return false
	}
	return true
}

// Ask sends a question to the owner and blocks until they reply, the
// timeout elapses or the context is cancelled.
func (b *Bot) Ask(ctx context.Context, question string) (string, bool) {
	answer := make(chan string, 1)

	b.mu.Lock()
	if b.pending != nil {
		b.mu.Unlock()
		return "", false // one question at a time
	}
	b.pending = answer
	b.mu.Unlock()

	clear := func() {
		b.mu.Lock()
		if b.pending == answer {
			b.pending = nil
		}
		b.mu.Unlock()
	}

	if !b.Send(ctx, "❓ "+question) {
		clear()
		return "", false
	}

	select {
	case reply := <-answer:
		return reply, true
	case <-time.After(b.cfg.AskTimeout):
		clear()
		return "", false
	case <-ctx.Done():
		clear()
		return "", false
	}
}
