package telegram

import (
	"context"
	"strings"

	"github.com/sandevgo/loopbot/pkg/conv"
	"github.com/sandevgo/loopbot/pkg/log"
	tele "gopkg.in/telebot.v3"
)

// Telegram caps messages at 4096 chars; staying under that keeps entity
// markup from straddling a chunk boundary.
const chunkLimit = 4000

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendMarkdown renders agent output as Telegram HTML and delivers it in
// order, one message per chunk. Only the first chunk honors silent so a
// long reply raises at most one notification.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string, silent bool) error {
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))

	for i, chunk := range splitHTML(html, chunkLimit) {
		opts := []interface{}{tele.ModeHTML}
		if silent && i == 0 {
			opts = append(opts, tele.Silent)
		}

		if _, err := s.bot.Send(to, chunk, opts...); err != nil {
			log.FromCtx(ctx).Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// splitHTML cuts text into pieces no longer than maxLen, preferring a
// newline cut when one falls late enough in the window.
func splitHTML(text string, maxLen int) []string {
	var chunks []string
	for len(text) > maxLen {
		cut := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}
