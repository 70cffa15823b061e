// Package app assembles the runtime: durable state, transcript, cache,
// generation client, pipeline, connector, and scheduler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwizi/replybot/internal/bot"
	"github.com/dwizi/replybot/internal/cache"
	"github.com/dwizi/replybot/internal/chatlog"
	"github.com/dwizi/replybot/internal/config"
	"github.com/dwizi/replybot/internal/genai"
	"github.com/dwizi/replybot/internal/keyword"
	"github.com/dwizi/replybot/internal/ratelimit"
	"github.com/dwizi/replybot/internal/scheduler"
	"github.com/dwizi/replybot/internal/store"
	"github.com/dwizi/replybot/internal/telegram"
)

// systemInstruction shapes generated replies: short, friendly, and in
// the mixed Hindi-English register the community writes in.
const systemInstruction = "You are a friendly community assistant in a Telegram group. " +
	"Reply in 1-3 short sentences, matching the user's language (English or Hinglish). " +
	"Be warm and helpful. If you do not know something, say so plainly."

type Runtime struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *store.Store
	chatlog   *chatlog.Store
	bot       *bot.Bot
	connector *telegram.Connector
	scheduler *scheduler.Service
}

func New(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	durable, err := store.Open(cfg.DataFile, logger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}

	transcript, err := chatlog.Open(cfg.ChatLogPath)
	if err != nil {
		return nil, fmt.Errorf("open chat log: %w", err)
	}
	if err := transcript.AutoMigrate(context.Background()); err != nil {
		transcript.Close()
		return nil, fmt.Errorf("migrate chat log: %w", err)
	}

	generator := genai.New(genai.Config{
		APIKey:            cfg.GenAIKey,
		BaseURL:           cfg.GenAIBaseURL,
		Model:             cfg.GenAIModel,
		Timeout:           time.Duration(cfg.GenAITimeoutSec) * time.Second,
		SystemInstruction: systemInstruction,
	}, logger.With("component", "genai"))

	resolver := cache.New(durable, generator, cfg.CacheCapacity, cfg.FuzzyThreshold)
	limiter := ratelimit.New(cfg.DailyLimit)

	client := telegram.NewClient(cfg.TelegramToken, cfg.TelegramAPI, transcript, logger.With("component", "telegram"))
	pipeline := bot.New(client, durable, keyword.Default(), limiter, resolver, transcript, bot.Options{
		AdminID:     cfg.AdminID,
		TypingDelay: time.Duration(cfg.TypingDelayMS) * time.Millisecond,
	}, logger.With("component", "bot"))

	connector := telegram.NewConnector(telegram.ConnectorOptions{
		Token:        cfg.TelegramToken,
		APIBase:      cfg.TelegramAPI,
		PollSeconds:  cfg.TelegramPoll,
		SyncCommands: cfg.CommandSync,
		Transcript:   transcript,
	}, pipeline, logger.With("component", "connector"))

	checkIns := scheduler.New(client, durable, cfg.AdminID, logger.With("component", "scheduler"))

	return &Runtime{
		cfg:       cfg,
		logger:    logger,
		store:     durable,
		chatlog:   transcript,
		bot:       pipeline,
		connector: connector,
		scheduler: checkIns,
	}, nil
}
