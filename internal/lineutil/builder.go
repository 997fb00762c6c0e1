// Package lineutil provides utility functions for building LINE messages and actions.
package lineutil

import (
	"strconv"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/garyellow/campus-navigator/internal/stringutil"
)

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewTextMessage creates a text message, cut to the LINE length limit.
func NewTextMessage(text string) *messaging_api.TextMessage {
	return &messaging_api.TextMessage{
		Text: stringutil.TruncateRunes(text, MaxTextMessageLength),
	}
}

// NewTextMessageWithQuickReply creates a text message with quick reply buttons.
// No items means no quick reply.
func NewTextMessageWithQuickReply(text string, items ...QuickReplyItem) *messaging_api.TextMessage {
	msg := NewTextMessage(text)
	if len(items) > 0 {
		msg.QuickReply = NewQuickReply(items)
	}
	return msg
}

// NewQuickReply creates a quick reply message component.
// LINE API limits: max 13 items
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > MaxQuickReplyItemCount {
		items = items[:MaxQuickReplyItemCount]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		qrItem := messaging_api.QuickReplyItem{
			Action: item.Action,
		}
		if item.ImageURL != "" {
			qrItem.ImageUrl = item.ImageURL
		}
		quickReplyItems[i] = qrItem
	}

	return &messaging_api.QuickReply{
		Items: quickReplyItems,
	}
}

// NewMessageAction creates a message action that sends text when clicked.
// The label is cut to the quick reply label limit.
func NewMessageAction(label, text string) Action {
	return &messaging_api.MessageAction{
		Label: stringutil.TruncateRunes(label, MaxQuickReplyLabel),
		Text:  text,
	}
}

// QuickReplyReachedAction confirms the current navigation step.
func QuickReplyReachedAction() QuickReplyItem {
	return QuickReplyItem{Action: NewMessageAction("✅ Reached", "Reached")}
}

// QuickReplyCancelAction abandons the current request.
func QuickReplyCancelAction() QuickReplyItem {
	return QuickReplyItem{Action: NewMessageAction("✖ Cancel", "Cancel")}
}

// QuickReplyHelpAction shows the usage text.
func QuickReplyHelpAction() QuickReplyItem {
	return QuickReplyItem{Action: NewMessageAction("📖 Help", "Help")}
}

// QuickReplyChoiceAction picks option number index (1-based). The button
// shows the label but sends the number, which always resolves uniquely.
func QuickReplyChoiceAction(index int, label string) QuickReplyItem {
	return QuickReplyItem{Action: NewMessageAction(strconv.Itoa(index)+". "+label, strconv.Itoa(index))}
}
