package telegram

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// unreachableMessages are Bot API error descriptions that mean the peer
// account cannot be contacted anymore (as opposed to transient failures).
var unreachableMessages = []string{
	"bot was blocked by the user",
	"user is deactivated",
	"chat not found",
	"bot can't initiate conversation with a user",
}

// IsUnreachable reports whether err is the transport telling us the peer
// account has blocked the bot, was deleted, or is otherwise permanently
// uncontactable. Network errors and rate limits are not unreachable.
func IsUnreachable(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == 403 {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	for _, needle := range unreachableMessages {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
