// Package keyword answers frequent questions from a fixed, ordered trigger
// table and recognizes the polite closers the bot should not reply to.
package keyword

import "strings"

// Pair binds a trigger substring to its canned reply. Table order is
// significant: the first matching trigger wins.
type Pair struct {
	Trigger string
	Reply   string
}

type Table struct {
	pairs   []Pair
	closers map[string]struct{}
}

func NewTable(pairs []Pair, closers []string) *Table {
	set := make(map[string]struct{}, len(closers))
	for _, phrase := range closers {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return &Table{pairs: pairs, closers: set}
}

// Match scans the table in order and returns the reply of the first
// trigger contained in text.
func (t *Table) Match(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, pair := range t.pairs {
		if strings.Contains(lowered, strings.ToLower(pair.Trigger)) {
			return pair.Reply, true
		}
	}
	return "", false
}

// IsCloser reports whether the normalized text exactly equals one of the
// acknowledgment or chat-ending phrases.
func (t *Table) IsCloser(text string) bool {
	_, ok := t.closers[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Default returns the built-in trigger table and closer vocabulary.
func Default() *Table {
	return NewTable(defaultPairs, defaultClosers)
}

var defaultPairs = []Pair{
	{Trigger: "getting started", Reply: "Head to /start and I will walk you through the basics. 😊"},
	{Trigger: "start", Reply: "Use /start any time and I will walk you through the basics."},
	{Trigger: "help", Reply: "Try /help for the full command list, or just ask me a question."},
	{Trigger: "pdf", Reply: "The latest guide is available with /pdf."},
	{Trigger: "document", Reply: "Ask me with /document and I will send the current guide."},
	{Trigger: "details", Reply: "Full details are in the guide — request it with /details."},
	{Trigger: "schedule", Reply: "The daily community update goes out every morning at 10:00."},
	{Trigger: "timing", Reply: "Updates land at 10:00 daily; I am around the clock otherwise."},
	{Trigger: "who are you", Reply: "I am the group's assistant bot. Ask me anything about the community."},
	{Trigger: "your name", Reply: "I am the community assistant — no fancy name needed."},
	{Trigger: "hello", Reply: "Hello! What would you like to know? 😊"},
	{Trigger: "namaste", Reply: "Namaste! Ask away whenever you are ready."},
	{Trigger: "rules", Reply: "Group rules are pinned at the top of the chat. Short version: be kind, no spam links."},
	{Trigger: "link", Reply: "Official links are pinned in the group description."},
	{Trigger: "admin", Reply: "You can reach the group admin through the pinned contact message."},
	{Trigger: "thank", Reply: "Any time! 😊"},
}

var defaultClosers = []string{
	"ok", "okay", "k", "thanks", "thank you", "thankyou",
	"done", "theek hai", "shukriya", "samajh gaya", "samajh gaye",
	"accha", "bilkul", "understood", "got it", "yes", "haan",
	"thik hai", "thik h", "alright", "cool", "nice",
	"bye", "goodbye", "bye bye", "khuda hafiz", "alvida",
	"see you", "tc", "take care", "later", "see ya", "cya",
	"exit", "quit", "band karo", "enough",
}
