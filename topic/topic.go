// Package topic assigns a coarse topic label to observed text.
package topic

import (
	"strings"
	"unicode"

	"github.com/poiesic/witness/core"
)

const (
	Finance = "finance"
	Meeting = "meeting"
	Project = "project"
	Email   = "email"
	None    = ""
)

// Bucket is a topic with the keywords that select it. A keyword matches any
// word it prefixes, so "invoice" also matches "invoices".
type Bucket struct {
	Topic    string
	Keywords []string
}

// DefaultBuckets in priority order.
var DefaultBuckets = []Bucket{
	{Topic: Finance, Keywords: []string{"invoice", "faktur", "payment", "płatnoś", "platnos", "transfer", "przelew", "przelan"}},
	{Topic: Meeting, Keywords: []string{"meeting", "call", "videoconference", "video call", "spotkani", "rozmow", "wideokonferencj"}},
	{Topic: Project, Keywords: []string{"project", "deadline", "projekt", "milestone"}},
	{Topic: Email, Keywords: []string{"mail", "email", "e-mail", "inbox", "wiadomoś"}},
}

// Classifier labels text with the first matching bucket.
type Classifier struct {
	buckets []Bucket
}

// New creates a classifier. Without buckets it uses DefaultBuckets.
func New(buckets ...Bucket) *Classifier {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	return &Classifier{buckets: buckets}
}

// Classify returns the topic for text, or None. Text from a known mail client
// is labeled Email when no earlier bucket matches.
func (c *Classifier) Classify(text, appName string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	joined := " " + strings.Join(words, " ")

	for _, b := range c.buckets {
		for _, kw := range b.Keywords {
			if strings.Contains(joined, " "+kw) {
				return b.Topic
			}
		}
		if b.Topic == Email && core.IsMailClient(appName) {
			return Email
		}
	}
	return None
}
