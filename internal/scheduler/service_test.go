package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

type fakeSender struct {
	chats []int64
	texts []string
	err   error
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.chats = append(f.chats, chatID)
	f.texts = append(f.texts, text)
	return nil
}

type fakeGate struct {
	muted bool
}

func (f *fakeGate) Muted() bool { return f.muted }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeliverSendsToAdmin(t *testing.T) {
	sender := &fakeSender{}
	service := New(sender, &fakeGate{}, 100, testLogger())

	service.deliver("check-in")
	if len(sender.chats) != 1 || sender.chats[0] != 100 {
		t.Fatalf("sent to %v, want [100]", sender.chats)
	}
	if sender.texts[0] != "check-in" {
		t.Fatalf("text = %q", sender.texts[0])
	}
}

func TestDeliverSkippedWhileMuted(t *testing.T) {
	sender := &fakeSender{}
	service := New(sender, &fakeGate{muted: true}, 100, testLogger())

	service.deliver("check-in")
	if len(sender.chats) != 0 {
		t.Fatalf("muted service must not deliver, sent %v", sender.texts)
	}
}

func TestDeliverFailureSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	service := New(sender, &fakeGate{}, 100, testLogger())
	service.deliver("check-in") // must not panic
}

func TestStartDisabledWithoutAdmin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	service := New(&fakeSender{}, &fakeGate{}, 0, testLogger())

	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("disabled service should exit cleanly, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("disabled service did not exit on cancel")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	service := New(&fakeSender{}, &fakeGate{}, 100, testLogger())

	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop on cancel")
	}
}

func TestCheckInSpecsParse(t *testing.T) {
	for _, entry := range dailyCheckIns {
		if _, err := cron.ParseStandard(entry.Spec); err != nil {
			t.Errorf("spec %q: %v", entry.Spec, err)
		}
	}
}
