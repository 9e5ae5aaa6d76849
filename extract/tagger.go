package extract

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/witness/core"
)

// Category is the class a Tagger assigns to a span of text.
type Category string

const (
	PersonalName Category = "personal_name"
	Organization Category = "organization"
	Place        Category = "place"
)

// entityTypes maps tagger categories to entity types.
var entityTypes = map[Category]core.EntityType{
	PersonalName: core.EntityPerson,
	Organization: core.EntityCompany,
	Place:        core.EntityLocation,
}

// Tag is a span of text with its category. Start and End are byte offsets.
type Tag struct {
	Start    int
	End      int
	Text     string
	Category Category
}

// Tagger classifies spans of text as names, organizations or places.
// Implementations must be safe for concurrent use.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Tag, error)
}

// Gazetteer is a Tagger backed by fixed lists of known names. Matching is on
// whole words. Person names match in any case; organization and place names
// must be capitalized or written exactly as listed, so "apple pie" or "zoom
// in" are not tagged. A Gazetteer is immutable after construction.
type Gazetteer struct {
	terms []gazetteerTerm
}

type gazetteerTerm struct {
	text     string
	lower    string
	category Category
}

func (t gazetteerTerm) accepts(span string) bool {
	if t.category == PersonalName || span == t.text {
		return true
	}
	r, _ := utf8.DecodeRuneInString(span)
	return unicode.IsUpper(r)
}

// DefaultOrganizations are organizations recognized without configuration.
var DefaultOrganizations = []string{
	"Google", "Microsoft", "Apple", "Amazon", "Meta", "Slack", "Atlassian",
	"GitHub", "OpenAI", "Allegro", "Orlen", "PKO BP", "mBank", "ING",
	"Santander", "Revolut", "Zoom", "Salesforce",
}

// DefaultPlaces are places recognized without configuration.
var DefaultPlaces = []string{
	"Warszawa", "Warsaw", "Kraków", "Krakow", "Wrocław", "Gdańsk", "Poznań",
	"Łódź", "Katowice", "Berlin", "London", "Paris", "New York",
	"San Francisco", "Amsterdam", "Prague",
}

// NewGazetteer builds a tagger from name lists. Empty entries are ignored.
func NewGazetteer(persons, organizations, places []string) *Gazetteer {
	g := &Gazetteer{}
	g.add(persons, PersonalName)
	g.add(organizations, Organization)
	g.add(places, Place)
	return g
}

// DefaultGazetteer returns a tagger for the default organizations and places.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(nil, DefaultOrganizations, DefaultPlaces)
}

func (g *Gazetteer) add(names []string, category Category) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		g.terms = append(g.terms, gazetteerTerm{text: n, lower: strings.ToLower(n), category: category})
	}
}

// Tag returns every whole-word occurrence of a known term.
func (g *Gazetteer) Tag(_ context.Context, text string) ([]Tag, error) {
	lower := strings.ToLower(text)
	// ToLower can change byte lengths, which breaks offsets into text.
	if len(lower) != len(text) {
		return g.tagUnaligned(text), nil
	}

	var tags []Tag
	for _, term := range g.terms {
		for off := 0; off < len(lower); {
			i := strings.Index(lower[off:], term.lower)
			if i < 0 {
				break
			}
			start := off + i
			end := start + len(term.lower)
			if isWordBoundary(text, start, end) && term.accepts(text[start:end]) {
				tags = append(tags, Tag{Start: start, End: end, Text: text[start:end], Category: term.category})
			}
			off = end
		}
	}
	return tags, nil
}

// tagUnaligned matches terms word by word when lowercasing shifts offsets.
func (g *Gazetteer) tagUnaligned(text string) []Tag {
	var tags []Tag
	for _, term := range g.terms {
		for off := 0; off < len(text); {
			start, end := indexFold(text[off:], term.lower)
			if start < 0 {
				break
			}
			start, end = start+off, end+off
			if isWordBoundary(text, start, end) && term.accepts(text[start:end]) {
				tags = append(tags, Tag{Start: start, End: end, Text: text[start:end], Category: term.category})
			}
			off = end
		}
	}
	return tags
}

// indexFold finds the first case-insensitive occurrence of lowerNeedle in s
// and returns its byte span in s.
func indexFold(s, lowerNeedle string) (int, int) {
	n := utf8.RuneCountInString(lowerNeedle)
	for i := range s {
		j, k := i, 0
		for k < n && j < len(s) {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
			k++
		}
		if k == n && strings.EqualFold(s[i:j], lowerNeedle) {
			return i, j
		}
	}
	return -1, -1
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
