// Package telegram implements the small slice of the Telegram Bot API the
// gateway needs: the getUpdates long-poll feed and fire-and-forget sendMessage.
package telegram
