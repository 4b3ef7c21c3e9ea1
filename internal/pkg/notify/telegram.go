package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/ticketev/internal/pkg/models"
	"github.com/Vodeneev/ticketev/internal/pkg/report"
)

// Min interval between two messages to the same chat (~30/min limit).
const telegramSendInterval = 2 * time.Second

// Telegram rejects messages above 4096 characters.
const maxMessageLen = 4000

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts run summaries to a Telegram chat.
type TelegramNotifier struct {
	bot      sender
	chatID   int64
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramNotifier connects to the bot API and checks the token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	slog.Info("Telegram notifier initialized", "bot", bot.Self.UserName, "chat_id", chatID)
	return &TelegramNotifier{bot: bot, chatID: chatID, interval: telegramSendInterval}, nil
}

// SendSummary posts the topN games by adjusted ratio plus the skipped count.
func (n *TelegramNotifier) SendSummary(ctx context.Context, results []models.GameResult, topN int) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	text := FormatSummary(results, topN)
	for i, chunk := range splitMessage(text, maxMessageLen) {
		if err := n.send(ctx, chunk); err != nil {
			return fmt.Errorf("failed to send summary part %d: %w", i+1, err)
		}
	}
	return nil
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := n.interval - time.Since(n.lastSend); wait > 0 {
		slog.Debug("Telegram send: waiting for rate limit", "wait_time", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	start := time.Now()
	n.lastSend = start
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send: failed", "error", err, "send_duration", time.Since(start))
		return err
	}
	slog.Info("Telegram send: success", "send_duration", time.Since(start), "length", len(text))
	return nil
}

// FormatSummary renders the message body in MarkdownV2.
func FormatSummary(results []models.GameResult, topN int) string {
	ranked := report.Sorted(results, report.SortAdjustedRatio, false)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	var b strings.Builder
	b.WriteString("*Best scratch tickets right now*\n\n")
	if len(ranked) == 0 {
		b.WriteString(escapeMarkdown("No game could be estimated.") + "\n")
	}
	for i, gr := range ranked {
		res := gr.Result
		b.WriteString(fmt.Sprintf("%d\\. *%s* %s\n", i+1,
			escapeMarkdown(gr.Game.Name),
			escapeMarkdown(fmt.Sprintf("($%.2f)", gr.Game.Price))))
		b.WriteString(escapeMarkdown(fmt.Sprintf("   adjusted EV $%.2f (ratio %.3f), printed EV $%.2f (ratio %.3f)",
			res.AdjustedExpectedValue, res.AdjustedRatio, res.OriginalExpectedValue, res.OriginalRatio)))
		b.WriteString("\n")
	}
	if failed := len(report.Failed(results)); failed > 0 {
		b.WriteString("\n" + escapeMarkdown(fmt.Sprintf("%d game(s) skipped", failed)) + "\n")
	}
	return b.String()
}

// splitMessage cuts text on line boundaries into chunks of at most max bytes.
func splitMessage(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len()+len(line) > max && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		for len(line) > max {
			cut := cutPoint(line, max)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// cutPoint returns the largest offset <= max that neither splits a UTF-8 rune nor
// separates a MarkdownV2 escape from the character it escapes.
func cutPoint(s string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	backslashes := 0
	for i := cut - 1; i >= 0 && s[i] == '\\'; i-- {
		backslashes++
	}
	if backslashes%2 == 1 {
		cut--
	}
	if cut <= 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(text)
}
