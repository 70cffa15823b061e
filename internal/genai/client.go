// Package genai wraps the Gemini generateContent endpoint. Rate-limit and
// overload responses are retried with bounded exponential backoff and then
// surfaced as sentinel errors the pipeline maps to fixed user notices.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	ErrRateLimited = errors.New("generation quota exhausted")
	ErrOverloaded  = errors.New("generation service overloaded")
)

const (
	maxAttempts    = 3
	initialBackoff = time.Second
)

type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	SystemInstruction string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	backoff    func(attempt int) time.Duration
}

func New(cfg Config, logger *slog.Logger) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "models/gemini-flash-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		backoff:    func(attempt int) time.Duration { return initialBackoff << attempt },
	}
}

// Generate asks the model for a reply to prompt. Retries stop after
// maxAttempts; the final failure keeps its sentinel classification.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", nil
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", fmt.Errorf("generation api key missing")
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) && !errors.Is(err, ErrOverloaded) {
			return "", err
		}
		if attempt == maxAttempts-1 {
			break
		}
		wait := c.backoff(attempt)
		c.logger.Warn("generation retry scheduled", "attempt", attempt+1, "wait", wait.String(), "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		SafetySettings: []safetySetting{},
	}
	if instruction := strings.TrimSpace(c.cfg.SystemInstruction); instruction != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: instruction}}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if err := classifyStatus(res.StatusCode, respBody); err != nil {
		return "", err
	}

	var response generateResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return strings.TrimSpace(response.text()), nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests || bytes.Contains(body, []byte("RESOURCE_EXHAUSTED")):
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	case status == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", ErrOverloaded, status)
	default:
		return fmt.Errorf("generate failed with status %d", status)
	}
}

type generateRequest struct {
	Contents          []content       `json:"contents"`
	SystemInstruction *content        `json:"systemInstruction,omitempty"`
	SafetySettings    []safetySetting `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type safetySetting struct {
	Category  string `json:"category,omitempty"`
	Threshold string `json:"threshold,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var builder strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		builder.WriteString(p.Text)
	}
	return builder.String()
}
