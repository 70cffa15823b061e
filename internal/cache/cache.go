// Package cache resolves prompts through a layered fallback: the durable
// response map, a bounded in-process LRU tier, a best-effort fuzzy match
// over that tier, and finally the generation client.
package cache

import (
	"container/list"
	"context"
	"strings"
	"unicode"

	"github.com/dwizi/replybot/internal/store"
)

// Source tags where a resolved response came from.
type Source string

const (
	SourceCache     Source = "cache"
	SourceFuzzy     Source = "fuzzy"
	SourceGenerated Source = "generated"
)

type Result struct {
	Source Source
	Text   string
}

type DurableStore interface {
	CachedResponse(prompt string) (string, bool)
	CacheResponse(prompt, response string)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Cache struct {
	durable        DurableStore
	generator      Generator
	capacity       int
	fuzzyThreshold float64

	order   *list.List
	entries map[string]*list.Element
}

type memoryEntry struct {
	key      string
	response string
}

func New(durable DurableStore, generator Generator, capacity int, fuzzyThreshold float64) *Cache {
	if capacity < 1 {
		capacity = 100
	}
	return &Cache{
		durable:        durable,
		generator:      generator,
		capacity:       capacity,
		fuzzyThreshold: fuzzyThreshold,
		order:          list.New(),
		entries:        make(map[string]*list.Element),
	}
}

// Lookup checks the durable tier first, then the in-process tier.
func (c *Cache) Lookup(prompt string) (string, bool) {
	if response, ok := c.durable.CachedResponse(prompt); ok {
		return response, true
	}
	return c.memoryGet(store.NormalizeKey(prompt))
}

// Store writes through to the durable tier and the in-process tier.
func (c *Cache) Store(prompt, response string) {
	key := store.NormalizeKey(prompt)
	if key == "" {
		return
	}
	c.durable.CacheResponse(prompt, response)
	c.memoryPut(key, response)
}

// FuzzyLookup scores the normalized prompt against every key in the
// in-process tier and returns the best response at or above threshold.
// Ties keep the first-encountered entry.
func (c *Cache) FuzzyLookup(prompt string, threshold float64) (string, bool) {
	queryTokens := tokenize(store.NormalizeKey(prompt))
	if len(queryTokens) == 0 {
		return "", false
	}
	best := ""
	bestScore := 0.0
	for element := c.order.Front(); element != nil; element = element.Next() {
		entry := element.Value.(*memoryEntry)
		score := jaccard(queryTokens, tokenize(entry.key))
		if score > bestScore {
			bestScore = score
			best = entry.response
		}
	}
	if bestScore >= threshold && best != "" {
		return best, true
	}
	return "", false
}

// Resolve walks the fallback chain and reports where the answer came from.
// Generated text is written through to both tiers before returning.
func (c *Cache) Resolve(ctx context.Context, prompt string) (Result, error) {
	if response, ok := c.Lookup(prompt); ok {
		return Result{Source: SourceCache, Text: response}, nil
	}
	if response, ok := c.FuzzyLookup(prompt, c.fuzzyThreshold); ok {
		return Result{Source: SourceFuzzy, Text: response}, nil
	}
	text, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	text = strings.TrimSpace(text)
	if text != "" {
		c.Store(prompt, text)
	}
	return Result{Source: SourceGenerated, Text: text}, nil
}

func (c *Cache) memoryGet(key string) (string, bool) {
	element, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(element)
	return element.Value.(*memoryEntry).response, true
}

func (c *Cache) memoryPut(key, response string) {
	if element, ok := c.entries[key]; ok {
		element.Value.(*memoryEntry).response = response
		c.order.MoveToFront(element)
		return
	}
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*memoryEntry).key)
		}
	}
	c.entries[key] = c.order.PushFront(&memoryEntry{key: key, response: response})
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		tokens[field] = struct{}{}
	}
	return tokens
}

// jaccard is |A ∩ B| / |A ∪ B| over the two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
