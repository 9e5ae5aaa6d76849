package extract

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/poiesic/witness/core"
)

// Extractor runs the staged entity pipeline. It holds no mutable state after
// construction and is safe for concurrent use when its Tagger is.
type Extractor struct {
	tagger      Tagger
	confidences Confidences
	givenNames  map[string]bool
	logger      *slog.Logger
}

// Option is a functional option for configuring an Extractor.
type Option func(*Extractor)

// WithTagger sets the Tagger used in the tagging stage. A nil tagger skips it.
func WithTagger(t Tagger) Option {
	return func(e *Extractor) {
		e.tagger = t
	}
}

// WithConfidences replaces the per-stage confidence values.
func WithConfidences(c Confidences) Option {
	return func(e *Extractor) {
		e.confidences = c
	}
}

// WithGivenNames replaces the given-name whitelist.
func WithGivenNames(names ...string) Option {
	return func(e *Extractor) {
		e.givenNames = nameSet(names)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor with the default gazetteer, confidences and given
// names, then applies opts.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		tagger:      DefaultGazetteer(),
		confidences: DefaultConfidences(),
		givenNames:  nameSet(DefaultGivenNames),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "entity-extractor")
	return e
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Extract returns the entities found in text. A failing Tagger is logged and
// its stage contributes nothing.
func (e *Extractor) Extract(ctx context.Context, text string) []core.Entity {
	var out []core.Entity
	c := e.confidences

	// Stage 1: chat headers with a timestamp.
	for _, m := range nameWithTimePattern.FindAllStringSubmatch(text, -1) {
		out = core.MergeEntities(out, person(m[1]+" "+m[2], c.NameWithTime))
	}

	// Stage 2: conversational markers and channels.
	for _, m := range sentencePersonPattern.FindAllStringSubmatchIndex(text, -1) {
		given, family := text[m[2]:m[3]], text[m[4]:m[5]]
		if sentenceStarters[given] || !isWordBoundary(text, m[4], m[5]) {
			continue
		}
		out = core.MergeEntities(out, person(given+" "+family, c.Conversational))
	}
	for _, m := range messageToPattern.FindAllStringSubmatchIndex(text, -1) {
		if !isWordBoundary(text, m[2], m[3]) {
			continue
		}
		out = core.MergeEntities(out, person(collapseSpaces(text[m[2]:m[3]]), c.Conversational))
	}
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		if strings.EqualFold(m[1], "general") {
			continue
		}
		out = core.MergeEntities(out, core.Entity{Type: core.EntityProject, Value: m[1], Confidence: c.Hashtag})
	}

	// Stage 3: tagger.
	if e.tagger != nil {
		tags, err := e.tagger.Tag(ctx, text)
		if err != nil {
			e.logger.Warn("tagger failed", "err", err)
		}
		for _, tag := range tags {
			typ, ok := entityTypes[tag.Category]
			if !ok {
				continue
			}
			out = core.MergeEntities(out, core.Entity{Type: typ, Value: strings.TrimSpace(tag.Text), Confidence: c.Tagger})
		}
	}

	// Stage 4: first email.
	if m := emailPattern.FindString(text); m != "" {
		out = core.MergeEntities(out, core.Entity{Type: core.EntityEmail, Value: m, Confidence: c.Email})
	}

	// Stage 5: first money amount.
	if m := moneyPattern.FindStringSubmatch(text); m != nil {
		out = core.MergeEntities(out, core.Entity{Type: core.EntityMoney, Value: strings.TrimSpace(m[1]), Confidence: c.Money})
	}

	// Stage 6: known given name followed by a capitalized word.
	words := capitalizedWords(text)
	for i := 0; i+1 < len(words); i++ {
		first, second := words[i], words[i+1]
		if !e.givenNames[text[first[0]:first[1]]] {
			continue
		}
		if !isBlank(text[first[1]:second[0]]) {
			continue
		}
		out = core.MergeEntities(out, person(text[first[0]:second[1]], c.GivenName))
	}

	return out
}

func person(name string, confidence float64) core.Entity {
	return core.Entity{Type: core.EntityPerson, Value: name, Confidence: confidence}
}

// capitalizedWords returns spans of whole capitalized words. Matches that sit
// inside a longer word such as "McDonald" are skipped.
func capitalizedWords(text string) [][]int {
	var out [][]int
	for _, loc := range capitalizedWordPattern.FindAllStringIndex(text, -1) {
		if isWordBoundary(text, loc[0], loc[1]) {
			out = append(out, loc)
		}
	}
	return out
}

// isBlank reports whether s is non-empty horizontal whitespace.
func isBlank(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
