package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/ticketev/internal/pkg/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func results(n int) []models.GameResult {
	var out []models.GameResult
	for i := 1; i <= n; i++ {
		out = append(out, models.GameResult{
			Game: models.Game{Name: fmt.Sprintf("Game-%d", i), Price: float64(i)},
			Result: &models.EstimationResult{
				AdjustedExpectedValue: float64(i) * 0.5,
				AdjustedRatio:         float64(i) / 10,
				OriginalExpectedValue: float64(i) * 0.6,
				OriginalRatio:         0.6,
			},
		})
	}
	out = append(out, models.GameResult{Game: models.Game{Name: "Broken"}, Err: errors.New("invalid stated odds")})
	return out
}

func TestFormatSummary(t *testing.T) {
	text := FormatSummary(results(6), 3)

	for _, want := range []string{"1\\. *Game\\-6*", "2\\. *Game\\-5*", "3\\. *Game\\-4*", "1 game\\(s\\) skipped"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Game\\-3") {
		t.Errorf("summary should be limited to top 3:\n%s", text)
	}
	if strings.Contains(text, "0.6") {
		t.Errorf("dots must be escaped:\n%s", text)
	}
}

func TestFormatSummary_NoResults(t *testing.T) {
	text := FormatSummary(nil, 5)
	if !strings.Contains(text, "No game could be estimated\\.") {
		t.Errorf("unexpected summary:\n%s", text)
	}
}

func TestSendSummary(t *testing.T) {
	fake := &fakeSender{}
	n := &TelegramNotifier{bot: fake, chatID: 42}

	if err := n.SendSummary(context.Background(), results(2), 5); err != nil {
		t.Fatal(err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.sent))
	}
	msg := fake.sent[0]
	if msg.ChatID != 42 || msg.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("chat=%d parse_mode=%q", msg.ChatID, msg.ParseMode)
	}

	fake.err = errors.New("429 Too Many Requests")
	if err := n.SendSummary(context.Background(), results(1), 5); err == nil {
		t.Error("expected send error to be returned")
	}

	var nilNotifier *TelegramNotifier
	if err := nilNotifier.SendSummary(context.Background(), nil, 5); err == nil {
		t.Error("expected error from nil notifier")
	}
}

func TestSend_RespectsContextWhileRateLimited(t *testing.T) {
	fake := &fakeSender{}
	n := &TelegramNotifier{bot: fake, chatID: 1, interval: telegramSendInterval}

	ctx, cancel := context.WithCancel(context.Background())
	if err := n.send(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := n.send(ctx, "second"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(fake.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(fake.sent))
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("splitMessage(short) = %q", got)
	}

	text := "aaaa\nbbbb\ncccc\n"
	got := splitMessage(text, 10)
	if strings.Join(got, "") != text {
		t.Errorf("chunks lose content: %q", got)
	}
	for _, c := range got {
		if len(c) > 10 {
			t.Errorf("chunk %q longer than 10", c)
		}
	}

	long := strings.Repeat("x", 25)
	got = splitMessage(long, 10)
	if len(got) != 3 || strings.Join(got, "") != long {
		t.Errorf("long line split = %q", got)
	}
}

func TestSplitMessage_KeepsRunesAndEscapesWhole(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
	}{
		{"multi-byte runes", strings.Repeat("é", 30), 7},
		{"escape at boundary", "aaaa\\.bbbb\\-cccc", 5},
		{"escaped backslash", "aaa\\\\\\.bbbbbbbb", 5},
		{"escaped name", escapeMarkdown(strings.Repeat("Lucky 7s (€5.00) ", 20)), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.text, tt.max)
			if strings.Join(got, "") != tt.text {
				t.Fatalf("chunks lose content: %q", got)
			}
			for _, c := range got {
				if !utf8.ValidString(c) {
					t.Errorf("chunk %q splits a rune", c)
				}
				if len(c) > tt.max {
					t.Errorf("chunk %q longer than %d", c, tt.max)
				}
				trailing := len(c) - len(strings.TrimRight(c, "\\"))
				if trailing%2 == 1 {
					t.Errorf("chunk %q ends with a dangling escape", c)
				}
			}
		})
	}
}
