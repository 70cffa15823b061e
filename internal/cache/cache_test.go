package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/dwizi/replybot/internal/store"
)

type fakeDurable struct {
	responses map[string]string
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{responses: map[string]string{}}
}

func (f *fakeDurable) CachedResponse(prompt string) (string, bool) {
	response, ok := f.responses[store.NormalizeKey(prompt)]
	return response, ok
}

func (f *fakeDurable) CacheResponse(prompt, response string) {
	f.responses[store.NormalizeKey(prompt)] = response
}

type fakeGenerator struct {
	calls int
	reply string
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestStoreThenLookupAlwaysHits(t *testing.T) {
	c := New(newFakeDurable(), &fakeGenerator{}, 10, 0.9)
	c.Store("  What IS this?  ", "an answer")

	got, ok := c.Lookup("what is this?")
	if !ok || got != "an answer" {
		t.Fatalf("lookup miss after store: %q %v", got, ok)
	}
	got, ok = c.Lookup("WHAT IS THIS?   ")
	if !ok || got != "an answer" {
		t.Fatalf("normalized variant miss: %q %v", got, ok)
	}
}

func TestLookupPrefersDurableTier(t *testing.T) {
	durable := newFakeDurable()
	durable.CacheResponse("question", "durable answer")
	c := New(durable, &fakeGenerator{}, 10, 0.9)
	c.memoryPut("question", "memory answer")

	got, ok := c.Lookup("question")
	if !ok || got != "durable answer" {
		t.Fatalf("expected durable tier first, got %q %v", got, ok)
	}
}

func TestMemoryTierEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(newFakeDurable(), &fakeGenerator{}, 2, 0.9)
	c.memoryPut("a", "1")
	c.memoryPut("b", "2")
	c.memoryGet("a") // refresh a; b becomes the eviction candidate
	c.memoryPut("c", "3")

	if _, ok := c.memoryGet("b"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
	if _, ok := c.memoryGet("a"); !ok {
		t.Fatal("recently used entry should survive")
	}
	if _, ok := c.memoryGet("c"); !ok {
		t.Fatal("new entry should be present")
	}
}

func TestFuzzyLookup(t *testing.T) {
	c := New(newFakeDurable(), &fakeGenerator{}, 10, 0.5)
	c.memoryPut("how do i withdraw money", "withdrawal steps")
	c.memoryPut("what is the weather", "no idea")

	got, ok := c.FuzzyLookup("How do I withdraw my money?", 0.5)
	if !ok || got != "withdrawal steps" {
		t.Fatalf("fuzzy match failed: %q %v", got, ok)
	}
	if _, ok := c.FuzzyLookup("entirely unrelated text here", 0.5); ok {
		t.Fatal("unrelated prompt should not fuzzy-match")
	}
}

func TestResolveGeneratesAndWritesThrough(t *testing.T) {
	durable := newFakeDurable()
	generator := &fakeGenerator{reply: "fresh answer"}
	c := New(durable, generator, 10, 0.9)

	result, err := c.Resolve(context.Background(), "new question")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Source != SourceGenerated || result.Text != "fresh answer" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if generator.calls != 1 {
		t.Fatalf("generator called %d times", generator.calls)
	}

	// Second resolve hits the cache, no second external call.
	result, err = c.Resolve(context.Background(), "NEW QUESTION ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Source != SourceCache || result.Text != "fresh answer" {
		t.Fatalf("expected cache hit, got %+v", result)
	}
	if generator.calls != 1 {
		t.Fatalf("generator should not be called again, calls=%d", generator.calls)
	}
}

func TestResolveSkipsWriteThroughOnEmptyText(t *testing.T) {
	durable := newFakeDurable()
	generator := &fakeGenerator{reply: "   "}
	c := New(durable, generator, 10, 0.9)

	result, err := c.Resolve(context.Background(), "question")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Source != SourceGenerated || result.Text != "" {
		t.Fatalf("expected empty generated result, got %+v", result)
	}
	if len(durable.responses) != 0 {
		t.Fatal("empty text must not be cached")
	}
}

func TestResolvePropagatesGeneratorError(t *testing.T) {
	wantErr := errors.New("boom")
	c := New(newFakeDurable(), &fakeGenerator{err: wantErr}, 10, 0.9)

	if _, err := c.Resolve(context.Background(), "question"); !errors.Is(err, wantErr) {
		t.Fatalf("expected generator error, got %v", err)
	}
}
