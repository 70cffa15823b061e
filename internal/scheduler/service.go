// Package scheduler delivers the fixed daily check-in messages to the
// admin chat.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Gate suppresses deliveries while the bot is muted.
type Gate interface {
	Muted() bool
}

type checkIn struct {
	Spec string
	Text string
}

var dailyCheckIns = []checkIn{
	{"0 6 * * *", "🌅 Good morning! The assistant is up and the group is quiet so far."},
	{"0 12 * * *", "🕛 Midday check-in: everything running normally."},
	{"0 18 * * *", "🌆 Evening check-in: still online and answering."},
	{"0 22 * * *", "🌙 Night check-in: wrapping up the day, all healthy."},
}

const deliverTimeout = 30 * time.Second

type Service struct {
	sender  Sender
	gate    Gate
	adminID int64
	logger  *slog.Logger
	cron    *cron.Cron
}

func New(sender Sender, gate Gate, adminID int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sender:  sender,
		gate:    gate,
		adminID: adminID,
		logger:  logger,
	}
}

// Start registers the cron entries and blocks until the context is
// cancelled. A zero admin id disables the service without failing the
// runtime.
func (s *Service) Start(ctx context.Context) error {
	if s.adminID == 0 || s.sender == nil {
		s.logger.Info("scheduler disabled, admin chat not configured")
		<-ctx.Done()
		return nil
	}

	s.cron = cron.New()
	for _, entry := range dailyCheckIns {
		text := entry.Text
		if _, err := s.cron.AddFunc(entry.Spec, func() {
			s.deliver(text)
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "check_ins", len(dailyCheckIns))

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Service) deliver(text string) {
	if s.gate != nil && s.gate.Muted() {
		s.logger.Info("check-in skipped, bot muted")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	if err := s.sender.SendMessage(ctx, s.adminID, text); err != nil {
		s.logger.Error("check-in delivery failed", "error", err)
	}
}
