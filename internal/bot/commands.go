package bot

import (
	"context"
	"fmt"
	"strings"
)

const (
	noticeAdminOnly    = "❌ Admin only!"
	noticeNoDocument   = "📄 Document not available yet. Please contact admin."
	noticeDocumentFail = "❌ Error sending document. Please try again."
)

const helpText = `<b>📖 Available Commands</b>

<b>User Commands:</b>
• /start - Start the bot
• /help - Show this help message
• /pdf - Get the uploaded document
• /document - Get the uploaded document
• /details - Get the uploaded document

<b>Admin Commands:</b>
• /panel - Open admin panel
• /stop - Stop the bot

<i>Just ask questions or send messages for instant replies!</i>`

func (b *Bot) handleCommand(ctx context.Context, msg Message, text string) error {
	command := strings.ToLower(strings.Fields(text)[0])
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	switch command {
	case "/start":
		return b.startCommand(ctx, msg)
	case "/help":
		return b.platform.SendHTML(ctx, msg.ChatID, helpText)
	case "/pdf", "/document", "/details":
		return b.documentRequest(ctx, msg)
	case "/panel":
		return b.panelCommand(ctx, msg)
	case "/stop":
		return b.stopCommand(ctx, msg)
	default:
		return nil
	}
}

func (b *Bot) startCommand(ctx context.Context, msg Message) error {
	b.state.TouchUser(msg.From.ID, msg.From.FirstName)

	if b.isAdmin(msg.From.ID) {
		return b.platform.SendMessage(ctx, msg.ChatID, "🎉 Welcome back, admin. Use /panel to access the controls.")
	}
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	greeting := fmt.Sprintf("👋 Hello %s! I'm the community assistant.\n\nAsk me anything, or use /help for commands. 😊", name)
	return b.platform.SendMessage(ctx, msg.ChatID, greeting)
}

func (b *Bot) documentRequest(ctx context.Context, msg Message) error {
	fileID := b.state.DocumentFileID()
	if fileID == "" {
		return b.platform.SendMessage(ctx, msg.ChatID, noticeNoDocument)
	}
	if err := b.platform.SendDocument(ctx, msg.ChatID, fileID); err != nil {
		b.logger.Error("document send failed", "chat_id", msg.ChatID, "error", err)
		return b.platform.SendMessage(ctx, msg.ChatID, noticeDocumentFail)
	}
	return nil
}

func (b *Bot) stopCommand(ctx context.Context, msg Message) error {
	if !b.isAdmin(msg.From.ID) {
		return b.platform.SendMessage(ctx, msg.ChatID, noticeAdminOnly)
	}
	if err := b.platform.SendMessage(ctx, msg.ChatID, "🛑 Stopping... goodbye!"); err != nil {
		b.logger.Warn("stop acknowledgment failed", "error", err)
	}
	b.logger.Info("stopped by admin", "user_id", msg.From.ID)
	b.stop()
	return nil
}
