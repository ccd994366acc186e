package moderation

import (
	"sort"
	"testing"
)

// memStore is an in-memory WordStore for tests.
type memStore struct {
	words map[string]bool
	fail  bool
}

func newMemStore(words ...string) *memStore {
	m := &memStore{words: make(map[string]bool)}
	for _, w := range words {
		m.words[w] = true
	}
	return m
}

func (m *memStore) LoadBlacklistWords() ([]string, error) {
	if m.fail {
		return nil, errFailed
	}
	var out []string
	for w := range m.words {
		out = append(out, w)
	}
	return out, nil
}

func (m *memStore) AddBlacklistWord(word string) error {
	m.words[word] = true
	return nil
}

func (m *memStore) RemoveBlacklistWord(word string) error {
	delete(m.words, word)
	return nil
}

type storeError string

func (e storeError) Error() string { return string(e) }

const errFailed = storeError("store unavailable")

func TestCheckAdContent(t *testing.T) {
	bl := NewBlacklist(newMemStore("gokken", "casino", "gratis geld"))

	t.Run("clean text is allowed", func(t *testing.T) {
		res, err := bl.CheckAdContent("Auto te koop", "BMW diesel automaat")
		if err != nil {
			t.Fatalf("CheckAdContent: %v", err)
		}
		if !res.Allowed {
			t.Errorf("clean ad should be allowed, blocked on %v", res.BlockedWords)
		}
		if len(res.BlockedWords) != 0 {
			t.Errorf("expected empty match list, got %v", res.BlockedWords)
		}
	})

	t.Run("whole-word match rejects", func(t *testing.T) {
		res, _ := bl.CheckAdContent("Gratis gokken aanbieding", "")
		if res.Allowed {
			t.Fatal("ad containing 'gokken' should be rejected")
		}
		if len(res.BlockedWords) != 1 || res.BlockedWords[0] != "gokken" {
			t.Errorf("expected exactly [gokken], got %v", res.BlockedWords)
		}
		if res.Reason == "" {
			t.Error("rejection should carry a reason")
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		res, _ := bl.CheckAdContent("CASINO avond", "")
		if res.Allowed {
			t.Error("uppercase banned word should still match")
		}
	})

	t.Run("no partial-word matches", func(t *testing.T) {
		res, _ := bl.CheckAdContent("Casinoboulevard appartement", "mooi uitzicht")
		if !res.Allowed {
			t.Errorf("substring inside a longer word must not match, got %v", res.BlockedWords)
		}
	})

	t.Run("all matches collected once each", func(t *testing.T) {
		res, _ := bl.CheckAdContent("Gokken in het casino", "gokken gokken casino")
		if res.Allowed {
			t.Fatal("expected rejection")
		}
		sort.Strings(res.BlockedWords)
		want := []string{"casino", "gokken"}
		if len(res.BlockedWords) != len(want) {
			t.Fatalf("expected %v, got %v", want, res.BlockedWords)
		}
		for i := range want {
			if res.BlockedWords[i] != want[i] {
				t.Errorf("expected %v, got %v", want, res.BlockedWords)
			}
		}
	})

	t.Run("description is checked too", func(t *testing.T) {
		res, _ := bl.CheckAdContent("Leuke avond", "met casino bezoek")
		if res.Allowed {
			t.Error("banned word in description should reject")
		}
	})

	t.Run("multi-word phrase matches as a phrase", func(t *testing.T) {
		res, _ := bl.CheckAdContent("Gratis geld verdienen vandaag", "")
		if res.Allowed {
			t.Error("phrase entry should match")
		}
		res, _ = bl.CheckAdContent("Gratis bezorging, geld terug garantie", "")
		if !res.Allowed {
			t.Errorf("split phrase words must not match, got %v", res.BlockedWords)
		}
	})
}

func TestBlacklistMutation(t *testing.T) {
	store := newMemStore("gokken")
	bl := NewBlacklist(store)

	res, _ := bl.CheckAdContent("mooie fiets", "")
	if !res.Allowed {
		t.Fatal("should start allowed")
	}

	if err := bl.Add("Fiets"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	res, _ = bl.CheckAdContent("mooie fiets", "")
	if res.Allowed {
		t.Error("cache should be invalidated after Add")
	}
	if !store.words["fiets"] {
		t.Error("Add should lowercase and persist to the store")
	}

	if err := bl.Remove("fiets"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	res, _ = bl.CheckAdContent("mooie fiets", "")
	if !res.Allowed {
		t.Error("cache should be invalidated after Remove")
	}

	if err := bl.Add("   "); err == nil {
		t.Error("blank word should be rejected")
	}
}

func TestBlacklistStoreFailure(t *testing.T) {
	store := newMemStore("gokken")
	store.fail = true
	bl := NewBlacklist(store)

	if _, err := bl.CheckAdContent("x", "y"); err == nil {
		t.Error("store failure should surface from the first load")
	}

	// Recovery: once the store is back, the cache loads.
	store.fail = false
	res, err := bl.CheckAdContent("gokken", "")
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if res.Allowed {
		t.Error("expected rejection after recovery")
	}
}
