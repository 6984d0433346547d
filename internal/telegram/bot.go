// Package telegram exposes the transaction service as a Telegram bot: text
// messages are treated as spoken transcripts, photos as receipts, and a few
// slash commands report on spending.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/receipt"
	"spendtrack/internal/services"
)

const maxPhotoBytes = 10 << 20

// Service is the part of the transaction service the bot uses.
type Service interface {
	AddFromTranscript(ctx context.Context, text string) (core.Transaction, error)
	AddFromReceipt(ctx context.Context, img []byte) (core.Transaction, error)
	Summarize(ctx context.Context, f services.Filter) (core.Summary, error)
	Budgets(ctx context.Context) (core.BudgetMap, error)
	Report(ctx context.Context, ref time.Time) (core.SpendingReport, error)
}

// API is the subset of tgbotapi.BotAPI the bot calls.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Bot struct {
	api    API
	svc    Service
	client *http.Client
	now    func() time.Time
	logger *applog.Logger
}

// Option configures a Bot.
type Option func(*Bot)

// WithHTTPClient sets the client used to download photos.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Bot) { b.client = c }
}

func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

func New(api API, svc Service, opts ...Option) *Bot {
	b := &Bot{
		api:    api,
		svc:    svc,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
		logger: applog.Wrap(nil, applog.ComponentBot),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run handles updates until ctx is cancelled or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate answers a single update. Updates without a message are
// ignored.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	msg := u.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	text := b.Reply(ctx, msg)
	if text == "" {
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		b.logger.ErrorContext(ctx, "Failed to send reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

// Reply computes the answer to msg.
func (b *Bot) Reply(ctx context.Context, msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return b.handlePhoto(ctx, msg.Photo)
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "/") {
		cmd, args := splitCommand(text)
		return b.handleCommand(ctx, cmd, args)
	}
	return b.handleTranscript(ctx, text)
}

// splitCommand separates "/cmd@botname args" into "cmd" and "args".
func splitCommand(text string) (string, string) {
	head, args, _ := strings.Cut(text, " ")
	head = strings.TrimPrefix(head, "/")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(args)
}

func (b *Bot) handleCommand(ctx context.Context, cmd, args string) string {
	switch cmd {
	case "start", "help":
		return helpText
	case "report":
		ref := b.now()
		if args != "" {
			t, err := time.Parse("2006-01", args)
			if err != nil {
				return "Use /report or /report YYYY-MM"
			}
			ref = t
		}
		report, err := b.svc.Report(ctx, ref)
		if err != nil {
			return b.failure(ctx, "report", err)
		}
		return FormatReport(report)
	case "budgets":
		budgets, err := b.svc.Budgets(ctx)
		if err != nil {
			return b.failure(ctx, "budgets", err)
		}
		return FormatBudgets(budgets)
	case "summary":
		var f services.Filter
		if args != "" {
			c, err := core.ParseCategory(args)
			if err != nil {
				return fmt.Sprintf("Unknown category %q", args)
			}
			f.Category = c
		}
		sum, err := b.svc.Summarize(ctx, f)
		if err != nil {
			return b.failure(ctx, "summary", err)
		}
		return FormatSummary(sum, f.Category)
	default:
		return "Unknown command. Send /help"
	}
}

func (b *Bot) handleTranscript(ctx context.Context, text string) string {
	t, err := b.svc.AddFromTranscript(ctx, text)
	if errors.Is(err, services.ErrExtractionMiss) {
		return "Could not find an amount and a merchant. Try: Spent $12 at Target with debit card"
	}
	if err != nil {
		return b.failure(ctx, "transcript", err)
	}
	return "Saved " + FormatTransaction(t)
}

func (b *Bot) handlePhoto(ctx context.Context, photos []tgbotapi.PhotoSize) string {
	// Telegram lists sizes smallest first.
	largest := photos[len(photos)-1]
	url, err := b.api.GetFileDirectURL(largest.FileID)
	if err != nil {
		return b.failure(ctx, "receipt", err)
	}
	img, err := b.download(ctx, url)
	if err != nil {
		return b.failure(ctx, "receipt", err)
	}
	t, err := b.svc.AddFromReceipt(ctx, img)
	switch {
	case errors.Is(err, receipt.ErrInvalidImage), errors.Is(err, receipt.ErrEmptyImage):
		return "That photo could not be read as an image"
	case errors.Is(err, services.ErrExtractionMiss):
		return "Could not read a total from that receipt"
	case err != nil:
		return b.failure(ctx, "receipt", err)
	}
	return "Saved receipt " + FormatTransaction(t)
}

func (b *Bot) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}

func (b *Bot) failure(ctx context.Context, op string, err error) string {
	b.logger.ErrorContext(ctx, "Bot request failed", applog.FieldOperation, op, "error", err)
	return "Something went wrong, please try again later"
}
