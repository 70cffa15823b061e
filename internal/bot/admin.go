package bot

import (
	"context"
	"fmt"
	"strings"
)

func (b *Bot) panelCommand(ctx context.Context, msg Message) error {
	if !b.isAdmin(msg.From.ID) {
		return b.platform.SendMessage(ctx, msg.ChatID, noticeAdminOnly)
	}
	rows := [][]Button{
		{
			{Text: "📄 Upload Document", Data: "admin_upload"},
			{Text: "📢 Broadcast", Data: "admin_broadcast"},
		},
		{
			{Text: "🔇 Mute Bot", Data: "admin_mute"},
			{Text: "🔊 Unmute Bot", Data: "admin_unmute"},
		},
		{
			{Text: "📊 Stats", Data: "admin_stats"},
		},
	}
	return b.platform.SendInlineKeyboard(ctx, msg.ChatID, "🎛️ Admin Panel\n\nChoose an action:", rows)
}

// HandleCallback services admin-panel button presses.
func (b *Bot) HandleCallback(ctx context.Context, callback Callback) error {
	if err := b.platform.AnswerCallback(ctx, callback.ID); err != nil {
		b.logger.Warn("callback ack failed", "callback_id", callback.ID, "error", err)
	}
	if !b.isAdmin(callback.From.ID) {
		return b.platform.EditMessage(ctx, callback.ChatID, callback.MessageID, noticeAdminOnly)
	}

	switch callback.Data {
	case "admin_upload":
		b.setAwaiting(true, false)
		return b.platform.EditMessage(ctx, callback.ChatID, callback.MessageID, "📁 Please send the document to upload.")
	case "admin_broadcast":
		b.setAwaiting(false, true)
		return b.platform.EditMessage(ctx, callback.ChatID, callback.MessageID, "📝 Send the message to broadcast.")
	case "admin_mute":
		b.state.SetMuted(true)
		return b.platform.EditMessage(ctx, callback.ChatID, callback.MessageID, "🔇 Bot muted.")
	case "admin_unmute":
		b.state.SetMuted(false)
		return b.platform.EditMessage(ctx, callback.ChatID, callback.MessageID, "🔊 Bot unmuted.")
	case "admin_stats":
		stats := b.state.Stats()
		text := fmt.Sprintf(
			"📊 Bot Statistics\n\nTotal Messages: %d\nTotal Users: %d\nTotal Broadcasts: %d",
			stats.TotalMessages, b.state.UserCount(), stats.TotalBroadcasts,
		)
		return b.platform.EditMessage(ctx, callback.ChatID, callback.MessageID, text)
	default:
		return nil
	}
}

// handleDocumentUpload stores the file handle when the admin previously
// requested an upload; anything else is ignored.
func (b *Bot) handleDocumentUpload(ctx context.Context, msg Message) error {
	if !b.isAdmin(msg.From.ID) {
		return nil
	}
	if !b.takeAwaitingDocument() {
		return nil
	}
	fileID := strings.TrimSpace(msg.Document.FileID)
	if fileID == "" {
		b.setAwaiting(true, false)
		return b.platform.SendMessage(ctx, msg.ChatID, "❌ Please send a valid document.")
	}
	b.state.SetDocumentFileID(fileID)
	return b.platform.SendMessage(ctx, msg.ChatID, "✅ Document uploaded successfully!")
}

// consumePendingBroadcast records broadcast text when the admin previously
// pressed the broadcast button. Returns true when the message was consumed.
func (b *Bot) consumePendingBroadcast(ctx context.Context, msg Message, text string) bool {
	if !b.isAdmin(msg.From.ID) || text == "" {
		return false
	}
	if !b.takeAwaitingBroadcast() {
		return false
	}
	b.state.IncrementBroadcasts()
	confirmation := "✅ Broadcast recorded."
	if b.recorder != nil {
		if id, err := b.recorder.RecordBroadcast(ctx, text); err != nil {
			b.logger.Error("broadcast archive failed", "error", err)
		} else {
			confirmation = fmt.Sprintf("✅ Broadcast recorded (%s).", id)
		}
	}
	if err := b.platform.SendMessage(ctx, msg.ChatID, confirmation); err != nil {
		b.logger.Warn("broadcast confirmation failed", "error", err)
	}
	return true
}

func (b *Bot) setAwaiting(document, broadcast bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.awaitingDocument = document
	b.awaitingBroadcast = broadcast
}

func (b *Bot) takeAwaitingDocument() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	was := b.awaitingDocument
	b.awaitingDocument = false
	return was
}

func (b *Bot) takeAwaitingBroadcast() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	was := b.awaitingBroadcast
	b.awaitingBroadcast = false
	return was
}
