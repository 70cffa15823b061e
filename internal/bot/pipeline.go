package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dwizi/replybot/internal/genai"
)

const (
	noticeLimitReached = "Daily limit reached — please try again tomorrow! 😅"
	noticeQuota        = "Quota exhausted right now, please try again later. 😅"
	noticeBusy         = "Server busy, try again soon ⏳"
	noticeGeneric      = "Technical issue, please try again 🙏"
	noticeNoAnswer     = "I could not come up with an answer this time! 😅"
)

// HandleMessage is the decision pipeline entry point for one inbound
// message. Admin-surface flows (document upload, pending broadcast,
// commands) run before the mute gate; everything else honors it.
func (b *Bot) HandleMessage(ctx context.Context, msg Message) error {
	if msg.Document != nil {
		return b.handleDocumentUpload(ctx, msg)
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		return b.handleCommand(ctx, msg, text)
	}
	if b.consumePendingBroadcast(ctx, msg, text) {
		return nil
	}

	if b.state.Muted() {
		return nil
	}
	if text == "" {
		return nil
	}

	b.state.TouchUser(msg.From.ID, msg.From.FirstName)

	if b.keywords.IsCloser(text) {
		return nil
	}
	if msg.IsReply {
		return nil
	}
	if msg.From.IsBot {
		return nil
	}

	if msg.ChatType.IsGroup() {
		privileged := b.memberPrivileged(ctx, msg.ChatID, msg.From.ID)
		if !privileged && hasDisallowedLink(text, b.allowedDomains) {
			if err := b.platform.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
				b.logger.Warn("link moderation delete failed", "chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
			}
			return nil
		}
		if privileged {
			return nil
		}
	}

	if err := b.platform.SendTyping(ctx, msg.ChatID); err != nil {
		b.logger.Warn("typing signal failed", "chat_id", msg.ChatID, "error", err)
	}
	if b.typingDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.typingDelay):
		}
	}

	if err := b.respond(ctx, msg, text); err != nil {
		b.logger.Error("respond failed", "chat_id", msg.ChatID, "user_id", msg.From.ID, "error", err)
		notice := noticeGeneric
		switch {
		case errors.Is(err, genai.ErrOverloaded):
			notice = noticeBusy
		case errors.Is(err, genai.ErrRateLimited):
			notice = noticeQuota
		}
		if sendErr := b.platform.SendMessage(ctx, msg.ChatID, notice); sendErr != nil {
			b.logger.Error("failure notice send failed", "chat_id", msg.ChatID, "error", sendErr)
		}
	}
	return nil
}

// respond resolves the reply text through keyword table, rate limiter and
// the layered cache. Keyword hits cost no quota; anything resolved through
// the cache or the generation client consumes one daily unit.
func (b *Bot) respond(ctx context.Context, msg Message, text string) error {
	if reply, ok := b.keywords.Match(text); ok {
		return b.platform.SendMessage(ctx, msg.ChatID, reply)
	}

	if !b.limiter.Allow(msg.From.ID) {
		return b.platform.SendMessage(ctx, msg.ChatID, noticeLimitReached)
	}

	result, err := b.resolver.Resolve(ctx, text)
	if err != nil {
		return err
	}
	b.logger.Info("reply resolved", "chat_id", msg.ChatID, "user_id", msg.From.ID, "source", string(result.Source))
	reply := strings.TrimSpace(result.Text)
	if reply == "" {
		return b.platform.SendMessage(ctx, msg.ChatID, noticeNoAnswer)
	}
	return b.platform.SendMessage(ctx, msg.ChatID, reply)
}

// memberPrivileged resolves chat-level privilege; lookup failures mean
// "not privileged".
func (b *Bot) memberPrivileged(ctx context.Context, chatID, userID int64) bool {
	status, err := b.platform.MemberStatus(ctx, chatID, userID)
	if err != nil {
		b.logger.Warn("member status lookup failed", "chat_id", chatID, "user_id", userID, "error", err)
		return false
	}
	switch status {
	case "administrator", "creator":
		return true
	default:
		return false
	}
}
