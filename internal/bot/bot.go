// Package bot holds the message decision pipeline, the command and admin
// surfaces, and the membership notifier. The chat platform and the
// generation-backed cache are collaborators behind small interfaces.
package bot

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/dwizi/replybot/internal/cache"
	"github.com/dwizi/replybot/internal/keyword"
	"github.com/dwizi/replybot/internal/store"
)

type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
)

func (t ChatType) IsGroup() bool {
	return t == ChatGroup || t == ChatSupergroup
}

type User struct {
	ID        int64
	FirstName string
	IsBot     bool
}

type Document struct {
	FileID   string
	FileName string
}

type Message struct {
	MessageID int64
	ChatID    int64
	ChatType  ChatType
	From      User
	Text      string
	IsReply   bool
	Document  *Document
}

// MemberUpdate mirrors a chat_member transition on the membership feed.
type MemberUpdate struct {
	ChatID    int64
	User      User
	OldStatus string
	NewStatus string
}

type Callback struct {
	ID        string
	From      User
	ChatID    int64
	MessageID int64
	Data      string
}

type Button struct {
	Text string
	Data string
}

// Platform is the outbound chat-platform boundary.
type Platform interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendHTML(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileID string) error
	SendTyping(ctx context.Context, chatID int64) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	MemberStatus(ctx context.Context, chatID, userID int64) (string, error)
	SendInlineKeyboard(ctx context.Context, chatID int64, text string, rows [][]Button) error
	AnswerCallback(ctx context.Context, callbackID string) error
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error
}

// State is the durable-store surface the pipeline mutates.
type State interface {
	Muted() bool
	SetMuted(muted bool)
	TouchUser(userID int64, firstName string)
	DocumentFileID() string
	SetDocumentFileID(fileID string)
	IncrementBroadcasts()
	Stats() store.Stats
	UserCount() int
}

// Resolver is the layered response cache.
type Resolver interface {
	Resolve(ctx context.Context, prompt string) (cache.Result, error)
}

type Limiter interface {
	Allow(identity int64) bool
}

// Recorder archives broadcast text; delivery is out of scope.
type Recorder interface {
	RecordBroadcast(ctx context.Context, text string) (string, error)
}

type Bot struct {
	platform       Platform
	state          State
	keywords       *keyword.Table
	limiter        Limiter
	resolver       Resolver
	recorder       Recorder
	adminID        int64
	typingDelay    time.Duration
	allowedDomains []string
	logger         *slog.Logger

	// stop terminates the process on a privileged /stop.
	stop     func()
	randIntN func(n int) int

	mu                sync.Mutex
	awaitingDocument  bool
	awaitingBroadcast bool
}

type Options struct {
	AdminID        int64
	TypingDelay    time.Duration
	AllowedDomains []string
}

func New(platform Platform, state State, keywords *keyword.Table, limiter Limiter, resolver Resolver, recorder Recorder, opts Options, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if keywords == nil {
		keywords = keyword.Default()
	}
	domains := opts.AllowedDomains
	if len(domains) == 0 {
		domains = defaultAllowedDomains
	}
	return &Bot{
		platform:       platform,
		state:          state,
		keywords:       keywords,
		limiter:        limiter,
		resolver:       resolver,
		recorder:       recorder,
		adminID:        opts.AdminID,
		typingDelay:    opts.TypingDelay,
		allowedDomains: domains,
		logger:         logger,
		stop:           func() { os.Exit(0) },
		randIntN:       rand.IntN,
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.adminID != 0 && userID == b.adminID
}
