// Package store persists the bot's durable state as a single JSON document.
// The whole document lives in memory and is rewritten to disk on every
// mutation; an unreadable or missing file is replaced by an empty default.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type UserRecord struct {
	UserID       int64     `json:"user_id"`
	FirstName    string    `json:"first_name"`
	MessageCount int       `json:"message_count"`
	LastSeen     time.Time `json:"last_seen"`
}

type Stats struct {
	TotalMessages   int `json:"total_messages"`
	TotalUsers      int `json:"total_users"`
	TotalBroadcasts int `json:"total_broadcasts"`
}

type snapshot struct {
	Responses      map[string]string     `json:"responses"`
	Users          map[string]UserRecord `json:"users"`
	DocumentFileID string                `json:"document_file_id,omitempty"`
	Muted          bool                  `json:"muted"`
	Stats          Stats                 `json:"stats"`
}

func defaultSnapshot() snapshot {
	return snapshot{
		Responses: map[string]string{},
		Users:     map[string]UserRecord{},
	}
}

type Store struct {
	mu     sync.Mutex
	path   string
	data   snapshot
	logger *slog.Logger
	now    func() time.Time
}

// Open loads the snapshot at path. A missing file is created with the
// empty default; a corrupt file falls back to the default without error.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   strings.TrimSpace(path),
		data:   defaultSnapshot(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if s.path == "" {
		return nil, fmt.Errorf("store path is empty")
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("creating data file", "path", s.path)
		if err := s.persist(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	default:
		if decodeErr := json.Unmarshal(raw, &s.data); decodeErr != nil {
			logger.Error("data file unreadable, starting empty", "path", s.path, "error", decodeErr)
			s.data = defaultSnapshot()
		}
		if s.data.Responses == nil {
			s.data.Responses = map[string]string{}
		}
		if s.data.Users == nil {
			s.data.Users = map[string]UserRecord{}
		}
	}
	return s, nil
}

// persist rewrites the whole file. Callers hold s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	return nil
}

func (s *Store) save() {
	if err := s.persist(); err != nil {
		s.logger.Error("persist failed", "path", s.path, "error", err)
	}
}

// NormalizeKey is the canonical cache-key form: trimmed and case-folded.
func NormalizeKey(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

func (s *Store) CachedResponse(prompt string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	response, ok := s.data.Responses[NormalizeKey(prompt)]
	return response, ok
}

func (s *Store) CacheResponse(prompt, response string) {
	key := NormalizeKey(prompt)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Responses[key] = response
	s.save()
}

// TouchUser creates or updates the sender's record and bumps the
// aggregate message counter.
func (s *Store) TouchUser(userID int64, firstName string) {
	key := strconv.FormatInt(userID, 10)
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data.Users[key]
	if !ok {
		record = UserRecord{UserID: userID, FirstName: firstName}
		s.data.Stats.TotalUsers++
	}
	record.MessageCount++
	record.LastSeen = s.now()
	if strings.TrimSpace(firstName) != "" {
		record.FirstName = firstName
	}
	s.data.Users[key] = record
	s.data.Stats.TotalMessages++
	s.save()
}

func (s *Store) User(userID int64) (UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.data.Users[strconv.FormatInt(userID, 10)]
	return record, ok
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.Users)
}

func (s *Store) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Muted = muted
	s.save()
}

func (s *Store) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Muted
}

func (s *Store) SetDocumentFileID(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DocumentFileID = strings.TrimSpace(fileID)
	s.save()
}

func (s *Store) DocumentFileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DocumentFileID
}

func (s *Store) IncrementBroadcasts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Stats.TotalBroadcasts++
	s.save()
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Stats
}
