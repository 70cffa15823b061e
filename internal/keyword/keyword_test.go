package keyword

import "testing"

func TestMatchFirstTriggerWins(t *testing.T) {
	table := NewTable([]Pair{
		{Trigger: "start now", Reply: "specific"},
		{Trigger: "start", Reply: "general"},
	}, nil)

	reply, ok := table.Match("how do I START NOW please")
	if !ok || reply != "specific" {
		t.Fatalf("expected first configured trigger to win, got %q %v", reply, ok)
	}
}

func TestMatchOrderBeatsLongerTrigger(t *testing.T) {
	// Reversed configuration picks the other entry for the same text.
	table := NewTable([]Pair{
		{Trigger: "start", Reply: "general"},
		{Trigger: "start now", Reply: "specific"},
	}, nil)

	reply, ok := table.Match("start now")
	if !ok || reply != "general" {
		t.Fatalf("expected table order to decide, got %q %v", reply, ok)
	}
}

func TestMatchMiss(t *testing.T) {
	table := NewTable([]Pair{{Trigger: "help", Reply: "x"}}, nil)
	if _, ok := table.Match("completely unrelated"); ok {
		t.Fatal("unexpected match")
	}
}

func TestIsCloser(t *testing.T) {
	table := NewTable(nil, []string{"ok", "thank you", "bye"})
	cases := map[string]bool{
		"  OK  ":         true,
		"Thank You":      true,
		"bye":            true,
		"ok then":        false,
		"thanks a bunch": false,
	}
	for text, want := range cases {
		if got := table.IsCloser(text); got != want {
			t.Errorf("IsCloser(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestDefaultTableHasClosersAndTriggers(t *testing.T) {
	table := Default()
	if !table.IsCloser("thanks") {
		t.Fatal("default closers missing acknowledgment phrase")
	}
	if !table.IsCloser("bye") {
		t.Fatal("default closers missing chat-ending phrase")
	}
	if _, ok := table.Match("hello everyone"); !ok {
		t.Fatal("default table should greet")
	}
}
