// surodeals/moderation/blacklist.go
package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// WordStore is the durable backing for the banned-word list.
type WordStore interface {
	LoadBlacklistWords() ([]string, error)
	AddBlacklistWord(word string) error
	RemoveBlacklistWord(word string) error
}

// CheckResult is the outcome of a blacklist check. All matches are collected;
// the check never short-circuits on the first hit.
type CheckResult struct {
	Allowed      bool     `json:"allowed"`
	BlockedWords []string `json:"blockedWords"`
	Reason       string   `json:"reason,omitempty"`
}

// Blacklist tests submitted ad text against the banned-word list. The
// in-memory pattern set is a read-through cache over the word store,
// invalidated on every mutation.
type Blacklist struct {
	store WordStore

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp // word -> whole-word pattern
	loaded   bool
}

func NewBlacklist(store WordStore) *Blacklist {
	return &Blacklist{store: store}
}

// compile builds a case-insensitive whole-word pattern for one entry.
// Multi-word entries match as a phrase; internal whitespace is normalized.
func compile(word string) (*regexp.Regexp, error) {
	fields := strings.Fields(strings.ToLower(word))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty blacklist entry")
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.Compile(`(?i)\b` + strings.Join(quoted, `\s+`) + `\b`)
}

func (b *Blacklist) ensureLoaded() (map[string]*regexp.Regexp, error) {
	b.mu.RLock()
	if b.loaded {
		patterns := b.patterns
		b.mu.RUnlock()
		return patterns, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return b.patterns, nil
	}

	words, err := b.store.LoadBlacklistWords()
	if err != nil {
		return nil, fmt.Errorf("could not load blacklist: %w", err)
	}
	patterns := make(map[string]*regexp.Regexp, len(words))
	for _, word := range words {
		re, err := compile(word)
		if err != nil {
			continue
		}
		patterns[strings.ToLower(word)] = re
	}
	b.patterns = patterns
	b.loaded = true
	return patterns, nil
}

// CheckAdContent tests a title and description against the blacklist.
// Pure check: logging a rejection is the caller's responsibility.
func (b *Blacklist) CheckAdContent(title, description string) (CheckResult, error) {
	patterns, err := b.ensureLoaded()
	if err != nil {
		return CheckResult{}, err
	}

	text := strings.ToLower(title + " " + description)
	var matched []string
	for word, re := range patterns {
		if re.MatchString(text) {
			matched = append(matched, word)
		}
	}

	if len(matched) == 0 {
		return CheckResult{Allowed: true, BlockedWords: []string{}}, nil
	}
	return CheckResult{
		Allowed:      false,
		BlockedWords: matched,
		Reason:       "advertentie bevat verboden woorden",
	}, nil
}

// Words returns the current banned-word list.
func (b *Blacklist) Words() ([]string, error) {
	patterns, err := b.ensureLoaded()
	if err != nil {
		return nil, err
	}
	words := make([]string, 0, len(patterns))
	for word := range patterns {
		words = append(words, word)
	}
	return words, nil
}

// Add persists a new banned word and invalidates the cache.
func (b *Blacklist) Add(word string) error {
	word = strings.TrimSpace(strings.ToLower(word))
	if word == "" {
		return fmt.Errorf("word must not be empty")
	}
	if _, err := compile(word); err != nil {
		return fmt.Errorf("invalid blacklist entry: %w", err)
	}
	if err := b.store.AddBlacklistWord(word); err != nil {
		return err
	}
	b.invalidate()
	return nil
}

// Remove deletes a banned word and invalidates the cache.
func (b *Blacklist) Remove(word string) error {
	word = strings.TrimSpace(strings.ToLower(word))
	if word == "" {
		return fmt.Errorf("word must not be empty")
	}
	if err := b.store.RemoveBlacklistWord(word); err != nil {
		return err
	}
	b.invalidate()
	return nil
}

func (b *Blacklist) invalidate() {
	b.mu.Lock()
	b.loaded = false
	b.patterns = nil
	b.mu.Unlock()
}
