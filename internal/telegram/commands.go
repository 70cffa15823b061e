package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// syncCommands registers the slash-command menu so clients can offer
// completion. Failures are non-fatal; Start logs and moves on.
func (c *Connector) syncCommands(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/bot%s/setMyCommands", c.apiBase, c.token)
	commands := make([]map[string]string, 0, len(botCommands))
	for _, command := range botCommands {
		commands = append(commands, map[string]string{
			"command":     command.Command,
			"description": command.Description,
		})
	}
	payload, err := json.Marshal(map[string]any{"commands": commands})
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
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("setMyCommands failed: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}

	var response struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode setMyCommands: %w", err)
	}
	if !response.OK {
		return fmt.Errorf("telegram setMyCommands failed")
	}
	return nil
}
