// Package telegram speaks the Telegram Bot API over plain HTTP: the Client
// covers the outbound methods, the Connector long-polls getUpdates and
// dispatches into the handler.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dwizi/replybot/internal/bot"
	"github.com/dwizi/replybot/internal/chatlog"
)

// Transcript mirrors chat traffic into the durable transcript. Append
// failures are logged and never block delivery.
type Transcript interface {
	Append(ctx context.Context, entry chatlog.Entry) error
}

type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
	transcript Transcript
	logger     *slog.Logger
}

func NewClient(token, apiBase string, transcript Transcript, logger *slog.Logger) *Client {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = "https://api.telegram.org"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		token:      strings.TrimSpace(token),
		apiBase:    strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		transcript: transcript,
		logger:     logger,
	}
}

// call posts a JSON body to a Bot API method and checks the ok envelope.
// The result payload, when needed, is decoded into out.
func (c *Client) call(ctx context.Context, method string, body map[string]any, out any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var response struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	if !response.OK {
		if strings.TrimSpace(response.Description) != "" {
			return fmt.Errorf("telegram %s failed: %s", method, response.Description)
		}
		return fmt.Errorf("telegram %s failed", method)
	}
	if out != nil && len(response.Result) > 0 {
		if err := json.Unmarshal(response.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, chatID int64, text, parseMode string) error {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		body["parse_mode"] = parseMode
	}
	if err := c.call(ctx, "sendMessage", body, nil); err != nil {
		return err
	}
	c.logOutbound(ctx, chatID, text)
	return nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, "")
}

func (c *Client) SendHTML(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, "HTML")
}

func (c *Client) SendDocument(ctx context.Context, chatID int64, fileID string) error {
	return c.call(ctx, "sendDocument", map[string]any{
		"chat_id":  chatID,
		"document": fileID,
	}, nil)
}

func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	return c.call(ctx, "sendChatAction", map[string]any{
		"chat_id": chatID,
		"action":  "typing",
	}, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
}

func (c *Client) MemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	var result struct {
		Status string `json:"status"`
	}
	err := c.call(ctx, "getChatMember", map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Status, nil
}

func (c *Client) SendInlineKeyboard(ctx context.Context, chatID int64, text string, rows [][]bot.Button) error {
	keyboard := make([][]map[string]string, 0, len(rows))
	for _, row := range rows {
		buttons := make([]map[string]string, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, map[string]string{
				"text":          button.Text,
				"callback_data": button.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}
	err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": map[string]any{"inline_keyboard": keyboard},
	}, nil)
	if err != nil {
		return err
	}
	c.logOutbound(ctx, chatID, text)
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	}, nil)
}

func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	return c.call(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}, nil)
}

func (c *Client) logOutbound(ctx context.Context, chatID int64, text string) {
	if c.transcript == nil {
		return
	}
	err := c.transcript.Append(ctx, chatlog.Entry{
		ChatID:    chatID,
		Direction: "outbound",
		ActorID:   "replybot",
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Error("outbound log append failed", "error", err, "chat_id", chatID)
	}
}
