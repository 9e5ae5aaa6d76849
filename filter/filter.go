package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reason names the check that rejected a text. The zero value means accepted.
type Reason string

const (
	Accepted   Reason = ""
	Secret     Reason = "secret"
	SQL        Reason = "sql"
	Noise      Reason = "noise"
	TooLong    Reason = "too_long"
	Structural Reason = "structural"
)

// secretMarkers are matched case-insensitively anywhere in the text.
var secretMarkers = []string{
	"api_key",
	"api-key",
	"apikey",
	"secret",
	"password=",
	"bearer ",
	"authorization:",
	"private key",
}

// tokenPrefixes identify credentials by their well-known prefix.
var tokenPrefixes = []string{
	"sk-",
	"ghp_",
	"gho_",
	"github_pat_",
	"xoxb-",
	"xoxp-",
	"AKIA",
	"eyJ",
}

// minTokenLength is the shortest word considered a possible credential.
const minTokenLength = 16

// Filter is a pure predicate over text. It holds no mutable state and is safe
// for concurrent use.
type Filter struct {
	noiseMarkers    []string
	maxLength       int
	structuralRatio float64
}

// New creates a Filter. A nil config uses DefaultConfig.
func New(cfg *Config) *Filter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	markers := make([]string, 0, len(cfg.NoiseMarkers))
	for _, m := range cfg.NoiseMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	ratio := cfg.StructuralRatio
	if ratio <= 0 {
		ratio = DefaultStructuralRatio
	}
	return &Filter{
		noiseMarkers:    markers,
		maxLength:       maxLength,
		structuralRatio: ratio,
	}
}

// IsRejected reports whether text must be dropped.
func (f *Filter) IsRejected(text string) bool {
	return f.Check(text) != Accepted
}

// Check returns the first check that rejects text, or Accepted.
func (f *Filter) Check(text string) Reason {
	lower := strings.ToLower(text)

	if containsSecret(text, lower) {
		return Secret
	}
	if containsSQL(lower) {
		return SQL
	}
	for _, m := range f.noiseMarkers {
		if strings.Contains(lower, m) {
			return Noise
		}
	}

	length := utf8.RuneCountInString(text)
	if length > f.maxLength {
		return TooLong
	}
	if length > 0 && float64(countStructural(text))/float64(length) > f.structuralRatio {
		return Structural
	}
	return Accepted
}

func containsSecret(text, lower string) bool {
	for _, m := range secretMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	for _, word := range strings.Fields(text) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) && r != '_' && r != '-'
		})
		if len(word) < minTokenLength {
			continue
		}
		for _, p := range tokenPrefixes {
			if strings.HasPrefix(word, p) {
				return true
			}
		}
	}
	return false
}

// containsSQL matches "select ... from" and "insert into" statements.
func containsSQL(lower string) bool {
	if strings.Contains(lower, "insert into") {
		return true
	}
	i := strings.Index(lower, "select ")
	return i >= 0 && strings.Contains(lower[i:], " from ")
}

func countStructural(text string) int {
	n := 0
	for _, r := range text {
		if strings.ContainsRune(structuralChars, r) {
			n++
		}
	}
	return n
}
