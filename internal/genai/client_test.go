package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(serverURL string) *Client {
	client := New(Config{
		APIKey:            "test-key",
		BaseURL:           serverURL,
		Model:             "models/test",
		SystemInstruction: "be helpful",
	}, testLogger())
	client.backoff = func(int) time.Duration { return time.Millisecond }
	return client
}

func successBody(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
}

func TestGenerateReturnsText(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(successBody("  generated reply\n"))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Generate(context.Background(), "a question")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "generated reply" {
		t.Fatalf("unexpected text %q", got)
	}
	if _, ok := captured["systemInstruction"]; !ok {
		t.Fatal("system instruction not sent")
	}
	if _, ok := captured["safetySettings"]; !ok {
		t.Fatal("safety settings not sent")
	}
}

func TestGenerateRetriesRateLimitThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(successBody("eventually"))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "eventually" || attempts != 3 {
		t.Fatalf("got %q after %d attempts", got, attempts)
	}
}

func TestGenerateRateLimitExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "q")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestGenerateClassifiesOverload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "q")
	if !errors.Is(err, ErrOverloaded) {
		t.Fatalf("expected ErrOverloaded, got %v", err)
	}
}

func TestGenerateDoesNotRetryGenericFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "q")
	if err == nil || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrOverloaded) {
		t.Fatalf("expected generic error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("generic failures must not retry, attempts=%d", attempts)
	}
}

func TestGenerateEmptyPromptShortCircuits(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	got, err := client.Generate(context.Background(), "   ")
	if err != nil || got != "" {
		t.Fatalf("empty prompt should be a no-op, got %q %v", got, err)
	}
}
