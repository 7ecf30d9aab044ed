package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/filestreamhq/filestream/internal/intake"
	"github.com/filestreamhq/filestream/internal/registry"
)

// Replies sent on the messaging path.
const (
	greetingText = "👋 Send me a video, audio, or document file and I will give you a streaming link."
	linkText     = "✅ File saved!\n\n🔗 *Your streaming link:*\n`%s`"
	saveFailText = "⚠️ Could not save your file right now. Please try again in a moment."
	notFoundText = "❌ File not found or the link is invalid."
	sendFailText = "⚠️ There was a problem sending the file."
)

// Registrar registers inbound uploads.
type Registrar interface {
	Register(ctx context.Context, upload intake.Upload) (intake.Result, error)
}

// RecordSource looks up file records for deep-link re-delivery. It is the
// same registry lookup the web path uses; the two must not diverge.
type RecordSource interface {
	Get(ctx context.Context, stableID string) (registry.FileRecord, error)
}

// UnreachableMarker receives reactive account-unreachable signals.
type UnreachableMarker interface {
	MarkUnreachable(ctx context.Context, ownerID int64)
}

// Listener consumes bot updates: media uploads go through the registrar,
// /start deep links re-deliver stored files, and transport-reported blocked
// accounts are forwarded to the lifecycle monitor.
type Listener struct {
	bot     *Bot
	uploads Registrar
	records RecordSource
	monitor UnreachableMarker
	logger  *slog.Logger
}

// NewListener creates the update listener.
func NewListener(log *slog.Logger, bot *Bot, uploads Registrar, records RecordSource, monitor UnreachableMarker) *Listener {
	return &Listener{
		bot:     bot,
		uploads: uploads,
		records: records,
		monitor: monitor,
		logger:  log.With(slog.String("component", "listener")),
	}
}

// Run consumes the update channel until ctx is cancelled. Each update is
// handled on its own goroutine so a slow registry write never blocks intake
// of the next upload.
func (l *Listener) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := l.bot.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("listener stopping")
			l.bot.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				l.logger.Info("updates channel closed")
				return
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() || msg.From == nil {
				continue
			}
			go l.handleMessage(ctx, msg)
		}
	}
}

func (l *Listener) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.Command() == "start":
		l.handleStart(ctx, msg)
	default:
		if upload, ok := extractUpload(msg); ok {
			l.handleUpload(ctx, msg.Chat.ID, upload)
		}
	}
}

func (l *Listener) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	stableID := strings.TrimSpace(msg.CommandArguments())
	if stableID == "" {
		l.reply(ctx, msg.Chat.ID, greetingText)
		return
	}

	record, err := l.records.Get(ctx, stableID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			l.reply(ctx, msg.Chat.ID, notFoundText)
			return
		}
		l.logger.Error("deep link lookup failed", slog.String("stable_id", stableID), slog.Any("error", err))
		l.reply(ctx, msg.Chat.ID, sendFailText)
		return
	}

	if err := l.bot.SendCachedMedia(ctx, msg.Chat.ID, record.DeliveryToken, record.MIMEType, record.Caption); err != nil {
		l.logger.Warn("cached media send failed", slog.String("stable_id", stableID), slog.Any("error", err))
		l.reply(ctx, msg.Chat.ID, sendFailText)
	}
}

func (l *Listener) handleUpload(ctx context.Context, chatID int64, upload intake.Upload) {
	result, err := l.uploads.Register(ctx, upload)
	if err != nil {
		l.logger.Error("register failed",
			slog.String("stable_id", upload.StableID),
			slog.Int64("owner_id", upload.OwnerID),
			slog.Any("error", err),
		)
		l.reply(ctx, chatID, saveFailText)
		return
	}
	l.reply(ctx, chatID, fmt.Sprintf(linkText, result.Link))
}

// reply sends best-effort; a blocked or deleted account is forwarded to the
// lifecycle monitor, every other failure is only logged.
func (l *Listener) reply(ctx context.Context, chatID int64, text string) {
	err := l.bot.SendText(ctx, chatID, text)
	if err == nil {
		return
	}
	if IsUnreachable(err) {
		l.logger.Info("owner unreachable on reply", slog.Int64("chat_id", chatID))
		l.monitor.MarkUnreachable(ctx, chatID)
		return
	}
	l.logger.Warn("reply failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
}

// extractUpload builds an upload descriptor from a media message. The
// file_unique_id is the durable dedup key; the file_id is the rotating
// delivery token.
func extractUpload(msg *tgbotapi.Message) (intake.Upload, bool) {
	upload := intake.Upload{
		Caption:   msg.Caption,
		OwnerID:   msg.From.ID,
		OwnerName: msg.From.FirstName,
	}

	switch {
	case msg.Video != nil:
		upload.StableID = msg.Video.FileUniqueID
		upload.DeliveryToken = msg.Video.FileID
		upload.DisplayName = msg.Video.FileName
		upload.MIMEType = msg.Video.MimeType
		upload.SizeBytes = int64(msg.Video.FileSize)
	case msg.Audio != nil:
		upload.StableID = msg.Audio.FileUniqueID
		upload.DeliveryToken = msg.Audio.FileID
		upload.DisplayName = msg.Audio.FileName
		upload.MIMEType = msg.Audio.MimeType
		upload.SizeBytes = int64(msg.Audio.FileSize)
	case msg.Document != nil:
		upload.StableID = msg.Document.FileUniqueID
		upload.DeliveryToken = msg.Document.FileID
		upload.DisplayName = msg.Document.FileName
		upload.MIMEType = msg.Document.MimeType
		upload.SizeBytes = int64(msg.Document.FileSize)
	default:
		return intake.Upload{}, false
	}
	return upload, true
}
