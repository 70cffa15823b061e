package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func adminMessage(text string) Message {
	return Message{
		MessageID: 21,
		ChatID:    100,
		ChatType:  ChatPrivate,
		From:      User{ID: 100, FirstName: "Admin"},
		Text:      text,
	}
}

func TestStartCommandGreetsUser(t *testing.T) {
	f := newFixture(t)
	if err := f.bot.HandleMessage(context.Background(), userMessage("/start")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.sent) != 1 || !strings.Contains(f.platform.sent[0], "Asha") {
		t.Fatalf("expected personalized greeting, sent %v", f.platform.sent)
	}
	if len(f.state.touched) != 1 {
		t.Fatal("/start registers the user")
	}
}

func TestStartCommandGreetsAdmin(t *testing.T) {
	f := newFixture(t)
	if err := f.bot.HandleMessage(context.Background(), adminMessage("/start")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.sent) != 1 || !strings.Contains(f.platform.sent[0], "/panel") {
		t.Fatalf("expected admin greeting, sent %v", f.platform.sent)
	}
}

func TestHelpSendsHTML(t *testing.T) {
	f := newFixture(t)
	if err := f.bot.HandleMessage(context.Background(), userMessage("/help")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.html) != 1 || !strings.Contains(f.platform.html[0], "/pdf") {
		t.Fatalf("expected HTML command list, got %v", f.platform.html)
	}
}

func TestCommandsBypassMute(t *testing.T) {
	f := newFixture(t)
	f.state.muted = true
	if err := f.bot.HandleMessage(context.Background(), userMessage("/help")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.html) != 1 {
		t.Fatal("commands must keep working while muted")
	}
}

func TestCommandBotMentionSuffixStripped(t *testing.T) {
	f := newFixture(t)
	if err := f.bot.HandleMessage(context.Background(), userMessage("/help@replybot")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.html) != 1 {
		t.Fatalf("mention-suffixed command should dispatch, got %v", f.platform.html)
	}
}

func TestDocumentRequestWithoutStoredFile(t *testing.T) {
	f := newFixture(t)
	if err := f.bot.HandleMessage(context.Background(), userMessage("/pdf")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.sent) != 1 || f.platform.sent[0] != noticeNoDocument {
		t.Fatalf("expected missing-document notice, sent %v", f.platform.sent)
	}
}

func TestDocumentRequestSendsStoredFile(t *testing.T) {
	f := newFixture(t)
	f.state.documentID = "file-123"
	for _, cmd := range []string{"/pdf", "/document", "/details"} {
		if err := f.bot.HandleMessage(context.Background(), userMessage(cmd)); err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
	}
	if len(f.platform.documents) != 3 {
		t.Fatalf("all three aliases should send the document, got %v", f.platform.documents)
	}
}

func TestDocumentSendFailureNoticed(t *testing.T) {
	f := newFixture(t)
	f.state.documentID = "file-123"
	f.platform.docErr = errors.New("file expired")

	if err := f.bot.HandleMessage(context.Background(), userMessage("/pdf")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.sent) != 1 || f.platform.sent[0] != noticeDocumentFail {
		t.Fatalf("expected failure notice, sent %v", f.platform.sent)
	}
}

func TestStopCommandAdminGated(t *testing.T) {
	f := newFixture(t)
	stopped := false
	f.bot.stop = func() { stopped = true }

	if err := f.bot.HandleMessage(context.Background(), userMessage("/stop")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if stopped {
		t.Fatal("non-admin /stop must not stop the process")
	}
	if len(f.platform.sent) != 1 || f.platform.sent[0] != noticeAdminOnly {
		t.Fatalf("expected admin-only notice, sent %v", f.platform.sent)
	}

	if err := f.bot.HandleMessage(context.Background(), adminMessage("/stop")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !stopped {
		t.Fatal("admin /stop must invoke the stop hook")
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	f := newFixture(t)
	if err := f.bot.HandleMessage(context.Background(), userMessage("/unknown")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.platform.sent) != 0 && len(f.platform.html) != 0 {
		t.Fatal("unknown commands should be silently ignored")
	}
	if f.resolver.calls != 0 {
		t.Fatal("commands never flow into the response pipeline")
	}
}
