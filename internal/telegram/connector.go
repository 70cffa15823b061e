package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dwizi/replybot/internal/bot"
	"github.com/dwizi/replybot/internal/chatlog"
)

// Handler receives decoded updates. It is the decision pipeline in
// production and a fake in tests.
type Handler interface {
	HandleMessage(ctx context.Context, msg bot.Message) error
	HandleCallback(ctx context.Context, callback bot.Callback) error
	HandleMemberUpdate(ctx context.Context, update bot.MemberUpdate)
}

// botCommands is the menu registered with setMyCommands when command
// sync is enabled.
var botCommands = []struct {
	Command     string
	Description string
}{
	{"start", "Introduce the assistant"},
	{"help", "List available commands"},
	{"pdf", "Get the shared document"},
	{"panel", "Open the admin panel"},
}

type Connector struct {
	token       string
	apiBase     string
	pollSeconds int
	syncMenu    bool
	handler     Handler
	transcript  Transcript
	httpClient  *http.Client
	logger      *slog.Logger
	botUsername string
	offset      int64
}

type ConnectorOptions struct {
	Token        string
	APIBase      string
	PollSeconds  int
	SyncCommands bool
	Transcript   Transcript
}

func NewConnector(opts ConnectorOptions, handler Handler, logger *slog.Logger) *Connector {
	apiBase := strings.TrimSpace(opts.APIBase)
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	pollSeconds := opts.PollSeconds
	if pollSeconds < 1 {
		pollSeconds = 25
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		token:       strings.TrimSpace(opts.Token),
		apiBase:     strings.TrimRight(apiBase, "/"),
		pollSeconds: pollSeconds,
		syncMenu:    opts.SyncCommands,
		handler:     handler,
		transcript:  opts.Transcript,
		httpClient: &http.Client{
			Timeout: time.Duration(pollSeconds+10) * time.Second,
		},
		logger: logger,
	}
}

func (c *Connector) Name() string {
	return "telegram"
}

// Start long-polls getUpdates until the context is cancelled. A missing
// token disables the connector without failing the runtime.
func (c *Connector) Start(ctx context.Context) error {
	if c.token == "" {
		c.logger.Info("connector disabled, token missing")
		<-ctx.Done()
		return nil
	}
	if c.handler == nil {
		c.logger.Info("connector disabled, handler missing")
		<-ctx.Done()
		return nil
	}

	c.logger.Info("connector started", "api_base", c.apiBase)
	if username, err := c.fetchBotUsername(ctx); err == nil {
		c.botUsername = username
		if c.botUsername != "" {
			c.logger.Info("bot identity loaded", "username", c.botUsername)
		}
	} else if ctx.Err() == nil {
		c.logger.Warn("bot username lookup failed", "error", err)
	}
	if c.syncMenu {
		if err := c.syncCommands(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("command sync failed", "error", err)
		}
	}

	for {
		if ctx.Err() != nil {
			c.logger.Info("connector stopped")
			return nil
		}
		if err := c.pollOnce(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("poll failed", "error", err)
			select {
			case <-ctx.Done():
				c.logger.Info("connector stopped")
				return nil
			case <-time.After(1500 * time.Millisecond):
			}
		}
	}
}

func (c *Connector) pollOnce(ctx context.Context) error {
	query := url.Values{}
	query.Set("timeout", strconv.Itoa(c.pollSeconds))
	query.Set("offset", strconv.FormatInt(c.offset, 10))
	query.Set("allowed_updates", `["message","callback_query","chat_member"]`)

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.apiBase, c.token, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var payload getUpdatesResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode getUpdates: %w", err)
	}
	if !payload.OK {
		return fmt.Errorf("telegram getUpdates failed")
	}

	for _, update := range payload.Result {
		if update.UpdateID >= c.offset {
			c.offset = update.UpdateID + 1
		}
		c.dispatch(ctx, update)
	}
	return nil
}

func (c *Connector) dispatch(ctx context.Context, update telegramUpdate) {
	switch {
	case update.Message != nil:
		message := decodeMessage(*update.Message)
		c.logInbound(ctx, *update.Message, message.Text)
		if err := c.handler.HandleMessage(ctx, message); err != nil {
			c.logger.Error("handle message failed", "error", err, "update_id", update.UpdateID)
		}
	case update.CallbackQuery != nil:
		if err := c.handler.HandleCallback(ctx, decodeCallback(*update.CallbackQuery)); err != nil {
			c.logger.Error("handle callback failed", "error", err, "update_id", update.UpdateID)
		}
	case update.ChatMember != nil:
		c.handler.HandleMemberUpdate(ctx, decodeMemberUpdate(*update.ChatMember))
	}
}

func (c *Connector) fetchBotUsername(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getMe", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var payload struct {
		OK     bool `json:"ok"`
		Result struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", err
	}
	if !payload.OK {
		return "", fmt.Errorf("telegram getMe failed")
	}
	return strings.TrimSpace(payload.Result.Username), nil
}

func (c *Connector) logInbound(ctx context.Context, message telegramMessage, text string) {
	if c.transcript == nil {
		return
	}
	logText := strings.TrimSpace(text)
	if logText == "" && message.Document != nil {
		logText = fmt.Sprintf("[attachment] %s", strings.TrimSpace(message.Document.FileName))
	}
	if logText == "" {
		return
	}
	var actorID string
	if message.From != nil {
		actorID = strconv.FormatInt(message.From.ID, 10)
	}
	err := c.transcript.Append(ctx, chatlog.Entry{
		ChatID:      message.Chat.ID,
		Direction:   "inbound",
		ActorID:     actorID,
		DisplayName: userDisplayName(message.From),
		Text:        logText,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		c.logger.Error("inbound log append failed", "error", err, "chat_id", message.Chat.ID)
	}
}

func decodeMessage(message telegramMessage) bot.Message {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}
	decoded := bot.Message{
		MessageID: message.MessageID,
		ChatID:    message.Chat.ID,
		ChatType:  bot.ChatType(message.Chat.Type),
		Text:      text,
		IsReply:   message.ReplyTo != nil,
	}
	if message.From != nil {
		decoded.From = bot.User{
			ID:        message.From.ID,
			FirstName: strings.TrimSpace(message.From.FirstName),
			IsBot:     message.From.IsBot,
		}
	}
	if message.Document != nil {
		decoded.Document = &bot.Document{
			FileID:   message.Document.FileID,
			FileName: message.Document.FileName,
		}
	}
	return decoded
}

func decodeCallback(callback telegramCallback) bot.Callback {
	decoded := bot.Callback{
		ID:   callback.ID,
		Data: callback.Data,
		From: bot.User{
			ID:        callback.From.ID,
			FirstName: strings.TrimSpace(callback.From.FirstName),
			IsBot:     callback.From.IsBot,
		},
	}
	if callback.Message != nil {
		decoded.ChatID = callback.Message.Chat.ID
		decoded.MessageID = callback.Message.MessageID
	}
	return decoded
}

func decodeMemberUpdate(update telegramChatMember) bot.MemberUpdate {
	return bot.MemberUpdate{
		ChatID: update.Chat.ID,
		User: bot.User{
			ID:        update.NewMember.User.ID,
			FirstName: strings.TrimSpace(update.NewMember.User.FirstName),
			IsBot:     update.NewMember.User.IsBot,
		},
		OldStatus: update.OldMember.Status,
		NewStatus: update.NewMember.Status,
	}
}

func userDisplayName(user *telegramUser) string {
	if user == nil {
		return ""
	}
	parts := []string{strings.TrimSpace(user.FirstName), strings.TrimSpace(user.LastName)}
	fullName := strings.TrimSpace(strings.Join(parts, " "))
	if fullName != "" {
		return fullName
	}
	if strings.TrimSpace(user.Username) != "" {
		return user.Username
	}
	return strconv.FormatInt(user.ID, 10)
}

type getUpdatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

type telegramUpdate struct {
	UpdateID      int64               `json:"update_id"`
	Message       *telegramMessage    `json:"message"`
	CallbackQuery *telegramCallback   `json:"callback_query"`
	ChatMember    *telegramChatMember `json:"chat_member"`
}

type telegramMessage struct {
	MessageID int64             `json:"message_id"`
	From      *telegramUser     `json:"from"`
	Chat      telegramChat      `json:"chat"`
	Text      string            `json:"text"`
	Caption   string            `json:"caption"`
	ReplyTo   *telegramStub     `json:"reply_to_message"`
	Document  *telegramDocument `json:"document"`
}

// telegramStub marks presence of a nested message without decoding it.
type telegramStub struct {
	MessageID int64 `json:"message_id"`
}

type telegramChat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

type telegramUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type telegramDocument struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

type telegramCallback struct {
	ID      string           `json:"id"`
	From    telegramUser     `json:"from"`
	Message *telegramMessage `json:"message"`
	Data    string           `json:"data"`
}

type telegramChatMember struct {
	Chat      telegramChat         `json:"chat"`
	OldMember telegramMemberStatus `json:"old_chat_member"`
	NewMember telegramMemberStatus `json:"new_chat_member"`
}

type telegramMemberStatus struct {
	User   telegramUser `json:"user"`
	Status string       `json:"status"`
}
