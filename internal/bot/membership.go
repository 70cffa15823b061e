package bot

import (
	"context"
	"fmt"
	"strings"
)

var welcomeTemplates = []string{
	"Welcome %s! Great to have you here. Feel free to ask any question. 😊",
	"Hello %s, the group welcomes you. Take your time to look around.",
	"%s just joined — say hi! If you need anything, just ask.",
	"Namaste %s! You can get started with /help any time.",
}

var farewellTemplates = []string{
	"Goodbye %s. All the best! 👋",
	"%s left the group. Take care!",
	"See you around, %s. You are welcome back any time.",
}

func isAbsent(status string) bool {
	return status == "left" || status == "kicked"
}

// HandleMemberUpdate emits a welcome or farewell for membership
// transitions; other transitions are ignored. Delivery failures are
// logged and swallowed.
func (b *Bot) HandleMemberUpdate(ctx context.Context, update MemberUpdate) {
	var templates []string
	switch {
	case isAbsent(update.OldStatus) && update.NewStatus == "member":
		templates = welcomeTemplates
	case update.OldStatus == "member" && isAbsent(update.NewStatus):
		templates = farewellTemplates
	default:
		return
	}

	name := strings.TrimSpace(update.User.FirstName)
	if name == "" {
		name = "Friend"
	}
	tag := fmt.Sprintf(`<b><a href="tg://user?id=%d">%s</a></b>`, update.User.ID, name)
	text := fmt.Sprintf(templates[b.randIntN(len(templates))], tag)

	if err := b.platform.SendHTML(ctx, update.ChatID, text); err != nil {
		b.logger.Warn("membership notice failed", "chat_id", update.ChatID, "user_id", update.User.ID, "error", err)
	}
}
