package dedup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NearCache keeps recently accepted texts as word sets and detects near
// duplicates among the newest of them.
//
// The cache holds up to capacity entries but only the window most recent are
// compared. Older entries are retained without being scanned.
type NearCache struct {
	capacity  int
	window    int
	threshold float64
	entries   []wordSet
}

type wordSet map[string]struct{}

// NewNearCache creates a near-duplicate cache.
func NewNearCache(capacity, window int, threshold float64) *NearCache {
	cfg := Config{NearCapacity: capacity, NearWindow: window, Threshold: threshold}.normalize()
	return &NearCache{
		capacity:  cfg.NearCapacity,
		window:    cfg.NearWindow,
		threshold: cfg.Threshold,
		entries:   make([]wordSet, 0, cfg.NearCapacity),
	}
}

// IsNearDuplicate reports whether content is at least threshold-similar to any
// entry in the comparison window.
func (c *NearCache) IsNearDuplicate(content string) bool {
	words := wordsOf(content)
	start := max(len(c.entries)-c.window, 0)
	for i := len(c.entries) - 1; i >= start; i-- {
		if jaccard(words, c.entries[i]) >= c.threshold {
			return true
		}
	}
	return false
}

// Remember appends content, trimming the oldest entry when over capacity.
func (c *NearCache) Remember(content string) {
	c.entries = append(c.entries, wordsOf(content))
	if len(c.entries) > c.capacity {
		c.entries = c.entries[len(c.entries)-c.capacity:]
	}
}

// Len returns the number of remembered texts.
func (c *NearCache) Len() int {
	return len(c.entries)
}

// jaccard returns |a∩b| / |a∪b|. Two empty sets are not similar.
func jaccard(a, b wordSet) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// wordsOf returns the set of lowercased words longer than two characters.
func wordsOf(text string) wordSet {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(wordSet, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > minWordLength {
			set[f] = struct{}{}
		}
	}
	return set
}
