package intake

import (
	"context"
	"fmt"
)

// TextSender sends a text message to a chat or channel.
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// AuditNotifier forwards a copy of each registration to a log channel.
type AuditNotifier struct {
	sender    TextSender
	channelID int64
}

// NewAuditNotifier creates a notifier targeting channelID. Returns nil when
// channelID is zero so callers can wire it straight into NewService.
func NewAuditNotifier(sender TextSender, channelID int64) *AuditNotifier {
	if channelID == 0 {
		return nil
	}
	return &AuditNotifier{sender: sender, channelID: channelID}
}

// NotifyUpload sends the uploader, file name, and generated link to the
// audit channel.
func (n *AuditNotifier) NotifyUpload(ctx context.Context, upload Upload, link string) error {
	text := fmt.Sprintf(
		"👤 *Uploader:* [%s](tg://user?id=%d)\n🆔 *ID:* `%d`\n\n🗂 *File:* `%s`\n🔗 *Link:* %s",
		upload.OwnerName,
		upload.OwnerID,
		upload.OwnerID,
		upload.DisplayName,
		link,
	)
	return n.sender.SendText(ctx, n.channelID, text)
}
