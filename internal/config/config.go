package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Environment string
	DataFile    string
	ChatLogPath string

	TelegramToken string
	TelegramAPI   string
	TelegramPoll  int
	CommandSync   bool

	GenAIKey        string
	GenAIBaseURL    string
	GenAIModel      string
	GenAITimeoutSec int

	// AdminID is the single privileged identity. Zero matches no real
	// Telegram account and leaves the admin surface unreachable.
	AdminID int64

	CacheCapacity  int
	FuzzyThreshold float64
	DailyLimit     int
	TypingDelayMS  int
}

func FromEnv() Config {
	return Config{
		Environment: stringOrDefault("REPLYBOT_ENV", "development"),
		DataFile:    stringOrDefault("REPLYBOT_DATA_FILE", "data.json"),
		ChatLogPath: stringOrDefault("REPLYBOT_CHATLOG_PATH", "chatlog.sqlite"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		TelegramAPI:   stringOrDefault("REPLYBOT_TELEGRAM_API_BASE", "https://api.telegram.org"),
		TelegramPoll:  intOrDefault("REPLYBOT_TELEGRAM_POLL_SECONDS", 25),
		CommandSync:   boolOrDefault("REPLYBOT_COMMAND_SYNC_ENABLED", true),

		GenAIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GenAIBaseURL:    stringOrDefault("REPLYBOT_GENAI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GenAIModel:      stringOrDefault("REPLYBOT_GENAI_MODEL", "models/gemini-flash-latest"),
		GenAITimeoutSec: intOrDefault("REPLYBOT_GENAI_TIMEOUT_SECONDS", 60),

		AdminID: int64OrDefault("ADMIN_ID", 0),

		CacheCapacity:  intOrDefault("REPLYBOT_CACHE_CAPACITY", 100),
		FuzzyThreshold: floatOrDefault("REPLYBOT_FUZZY_THRESHOLD", 0.75),
		DailyLimit:     intOrDefault("REPLYBOT_DAILY_LIMIT", 20),
		TypingDelayMS:  intOrDefault("REPLYBOT_TYPING_DELAY_MS", 1000),
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func int64OrDefault(name string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func floatOrDefault(name string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
