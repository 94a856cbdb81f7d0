package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-jobradar/internal/dedup"
	"go-jobradar/internal/models"
)

const DefaultMaxMessages = 20

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot posts new postings to one chat.
type Bot struct {
	api         sender
	chatID      int64
	maxMessages int
}

func NewBot(token string, chatID int64, maxMessages int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return newBot(api, chatID, maxMessages), nil
}

func newBot(api sender, chatID int64, maxMessages int) *Bot {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Bot{api: api, chatID: chatID, maxMessages: maxMessages}
}

var markdownReplacer = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!", "\\", "\\\\",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// escapeURL escapes the characters MarkdownV2 reserves inside (...) links.
func escapeURL(u string) string {
	return strings.NewReplacer("\\", "\\\\", ")", "\\)").Replace(u)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func formatJob(job models.Job) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💼 *%s*\n", escapeMarkdown(orNA(job.Title)))
	fmt.Fprintf(&sb, "🏢 %s\n", escapeMarkdown(orNA(job.Company)))
	fmt.Fprintf(&sb, "📍 %s\n", escapeMarkdown(orNA(job.Location)))
	if job.PostedDate != "" {
		fmt.Fprintf(&sb, "📅 %s\n", escapeMarkdown(job.PostedDate))
	}
	if link := job.Link(); link != "" {
		fmt.Fprintf(&sb, "🔗 [View Job](%s)\n", escapeURL(link))
	}
	fmt.Fprintf(&sb, "🔖 Source: %s\n", escapeMarkdown(orNA(job.Source)))
	return sb.String()
}

func (b *Bot) SendJob(job models.Job) error {
	msg := tgbotapi.NewMessage(b.chatID, formatJob(job))
	msg.ParseMode = "MarkdownV2"
	if link := job.Link(); link != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", link)),
		)
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	_, err := b.api.Send(msg)
	return err
}

// ReportRun sends one message per added posting, up to the configured cap, then
// a status line.
func (b *Bot) ReportRun(ctx context.Context, source string, s dedup.Summary) error {
	sent := 0
	for _, job := range s.Added {
		if sent >= b.maxMessages {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.SendJob(job); err != nil {
			return fmt.Errorf("send job %s: %w", job.IdentityKey(), err)
		}
		sent++
	}

	status := fmt.Sprintf("%s: %d new, %d tracked, %d expired", source, len(s.Added), s.Final, s.Evicted)
	if skipped := len(s.Added) - sent; skipped > 0 {
		status += fmt.Sprintf(" (%d not shown)", skipped)
	}
	return b.SendStatus(status)
}
