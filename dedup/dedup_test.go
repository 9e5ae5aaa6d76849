package dedup

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distinct returns texts that share no words with each other.
func distinct(i int) string {
	return fmt.Sprintf("unique%04d entry%04d text%04d", i, i, i)
}

func TestExactCache_RememberAndEvict(t *testing.T) {
	c := NewExactCache(3)
	c.Remember("a")
	c.Remember("b")
	c.Remember("c")
	require.True(t, c.Contains("a"))

	c.Remember("d")
	assert.False(t, c.Contains("a"), "oldest hash should be evicted")
	assert.True(t, c.Contains("d"))
	assert.Equal(t, 3, c.Len())
}

func TestExactCache_RememberTwiceKeepsOneSlot(t *testing.T) {
	c := NewExactCache(2)
	c.Remember("a")
	c.Remember("a")
	c.Remember("b")
	assert.True(t, c.Contains("a"))
	assert.Equal(t, 2, c.Len())
}

func TestJaccard(t *testing.T) {
	a := wordsOf("alpha beta gamma delta")
	b := wordsOf("alpha beta gamma epsilon")
	// 3 shared of 5 distinct.
	assert.InDelta(t, 0.6, jaccard(a, b), 1e-9)
	assert.Equal(t, 0.0, jaccard(wordsOf("a b"), wordsOf("to of")))
}

func TestWords(t *testing.T) {
	w := wordsOf("Hi, the Spotkanie: 7:10 PM ok?")
	assert.Equal(t, wordSet{"the": {}, "spotkanie": {}}, w)
}

func TestNearCache_ThresholdBoundary(t *testing.T) {
	// Four of five distinct words shared: similarity is exactly 0.8.
	t.Run("at threshold is duplicate", func(t *testing.T) {
		c := NewNearCache(100, 20, 0.8)
		c.Remember("apple banana cherry grape")
		assert.True(t, c.IsNearDuplicate("apple banana cherry grape lemon"))
	})

	// 79 of 100 distinct words shared: similarity is 0.79.
	t.Run("below threshold is unique", func(t *testing.T) {
		shared := make([]string, 0, 79)
		for i := range 79 {
			shared = append(shared, fmt.Sprintf("word%03d", i))
		}
		first := strings.Join(shared, " ") + " " + strings.Join(extra("left", 10), " ")
		second := strings.Join(shared, " ") + " " + strings.Join(extra("right", 11), " ")

		require.InDelta(t, 0.79, jaccard(wordsOf(first), wordsOf(second)), 1e-9)

		c := NewNearCache(100, 20, 0.8)
		c.Remember(first)
		assert.False(t, c.IsNearDuplicate(second))
	})
}

func extra(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return out
}

func TestNearCache_OnlyRecentWindowIsCompared(t *testing.T) {
	c := NewNearCache(100, 20, 0.8)
	c.Remember("quarterly budget review with finance team")
	for i := range 20 {
		c.Remember(distinct(i))
	}
	require.Equal(t, 21, c.Len())

	// The first entry is still cached but outside the comparison window.
	assert.False(t, c.IsNearDuplicate("quarterly budget review with finance team"))
}

func TestNearCache_TrimsToCapacity(t *testing.T) {
	c := NewNearCache(5, 5, 0.8)
	for i := range 8 {
		c.Remember(distinct(i))
	}
	assert.Equal(t, 5, c.Len())
	assert.False(t, c.IsNearDuplicate(distinct(0)))
	assert.True(t, c.IsNearDuplicate(distinct(7)))
}

func TestDeduplicator_IdempotentRejection(t *testing.T) {
	d := New(Config{})
	content := "Call with Piotr about the contract renewal"

	accepted := 0
	for range 5 {
		if d.Accept(content) == Unique {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, Exact, d.Check(content))
}

func TestDeduplicator_CheckDoesNotMutate(t *testing.T) {
	d := New(Config{})
	content := "Design review notes for the onboarding flow"
	for range 3 {
		assert.Equal(t, Unique, d.Check(content))
	}
	assert.Equal(t, 0, d.exact.Len())
	assert.Equal(t, 0, d.near.Len())
}

func TestDeduplicator_NearDuplicate(t *testing.T) {
	d := New(Config{})
	require.Equal(t, Unique, d.Accept("Anna shared the sprint planning agenda today"))
	assert.Equal(t, Near, d.Accept("anna shared the sprint planning agenda today!"))
}

func TestDeduplicator_EvictionAfterCapacity(t *testing.T) {
	d := New(Config{})
	for i := range 1001 {
		require.Equal(t, Unique, d.Accept(distinct(i)), "content %d", i)
	}
	// The first content fell out of the exact cache and far outside the
	// near-duplicate window, so it is accepted again.
	assert.Equal(t, Unique, d.Accept(distinct(0)))
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "exact", Exact.String())
	assert.Equal(t, "near", Near.String())
	assert.Equal(t, "unique", Unique.String())
}
