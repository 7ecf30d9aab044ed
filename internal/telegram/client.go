// Package telegram wraps the Telegram Bot API: outbound calls, the inbound
// update listener, and classification of transport errors.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram Bot API client used by the intake, resolver, and
// lifecycle paths. Constructed once on startup and passed in explicitly.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

// requestTimeout bounds every Bot API call. It must stay above the update
// long-poll window (30s) or GetUpdates would time out client-side.
const requestTimeout = 50 * time.Second

// NewBot connects to the Bot API with the given token.
func NewBot(log *slog.Logger, token string) (*Bot, error) {
	client := &http.Client{Timeout: requestTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	b := &Bot{
		api:    api,
		logger: log.With(slog.String("component", "telegram")),
	}
	b.logger.Info("bot connected", slog.String("username", api.Self.UserName))
	return b, nil
}

// Username returns the bot's @-handle without the prefix.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// FileURL asks the Bot API for the current location of the file behind
// deliveryToken and returns a fully qualified download URL. The URL is valid
// for a limited time; callers must not cache it. Telegram's getFile does not
// report a MIME type, so the hint is always empty.
func (b *Bot) FileURL(ctx context.Context, deliveryToken string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: deliveryToken})
	if err != nil {
		return "", "", fmt.Errorf("getFile: %w", err)
	}
	return file.Link(b.api.Token), "", nil
}

// SendText sends a Markdown-formatted message to the chat.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

// SendCachedMedia re-delivers an already-uploaded file to the chat by its
// delivery token. The media kind is picked from the stored MIME type so
// Telegram renders it natively.
func (b *Bot) SendCachedMedia(ctx context.Context, chatID int64, deliveryToken, mimeType, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fileID := tgbotapi.FileID(deliveryToken)

	var msg tgbotapi.Chattable
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		video := tgbotapi.NewVideo(chatID, fileID)
		video.Caption = caption
		msg = video
	case strings.HasPrefix(mimeType, "audio/"):
		audio := tgbotapi.NewAudio(chatID, fileID)
		audio.Caption = caption
		msg = audio
	default:
		doc := tgbotapi.NewDocument(chatID, fileID)
		doc.Caption = caption
		msg = doc
	}

	_, err := b.api.Send(msg)
	return err
}

// Probe attempts a zero-content contact with the owner's chat. A nil return
// means the account is reachable; unreachable accounts surface as API errors
// classified by IsUnreachable.
func (b *Bot) Probe(ctx context.Context, ownerID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	action := tgbotapi.NewChatAction(ownerID, tgbotapi.ChatTyping)
	_, err := b.api.Request(action)
	return err
}
