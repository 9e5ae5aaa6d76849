package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/witness/core"
)

type stubTagger struct {
	tags []Tag
	err  error
}

func (s stubTagger) Tag(context.Context, string) ([]Tag, error) {
	return s.tags, s.err
}

func TestExtract_NameWithTime(t *testing.T) {
	e := New()
	got := e.Extract(context.Background(), "Kamil Moskała 7:10 PM")

	require.Len(t, got, 1)
	assert.Equal(t, core.Entity{Type: core.EntityPerson, Value: "Kamil Moskała", Confidence: 0.9}, got[0])
}

func TestExtract_InvoiceExample(t *testing.T) {
	e := New()
	got := e.Extract(context.Background(), "Please send invoice 500 PLN to john@x.com")

	assert.ElementsMatch(t, []core.Entity{
		{Type: core.EntityEmail, Value: "john@x.com", Confidence: 1.0},
		{Type: core.EntityMoney, Value: "500 PLN", Confidence: 1.0},
	}, got)
}

func TestExtract_Stages(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []core.Entity
	}{
		{
			name: "sentence boundary person",
			text: "Thanks for the update. Marta Zielińska will join later",
			want: []core.Entity{{Type: core.EntityPerson, Value: "Marta Zielińska", Confidence: 0.95}},
		},
		{
			name: "sentence starter is not a name",
			text: "It was late. The Board met anyway",
			want: nil,
		},
		{
			name: "message to",
			text: "Message to Oskar",
			want: []core.Entity{{Type: core.EntityPerson, Value: "Oskar", Confidence: 0.95}},
		},
		{
			name: "hashtags skip general",
			text: "posted in #general and #launch-plan",
			want: []core.Entity{{Type: core.EntityProject, Value: "launch-plan", Confidence: 0.8}},
		},
		{
			name: "anchor inside url is not a hashtag",
			text: "see docs.example.com/page#install for details",
			want: nil,
		},
		{
			name: "first email only",
			text: "cc a@example.com and b@example.com",
			want: []core.Entity{{Type: core.EntityEmail, Value: "a@example.com", Confidence: 1.0}},
		},
		{
			name: "leading currency symbol",
			text: "The total is $1,250.50 this month",
			want: []core.Entity{{Type: core.EntityMoney, Value: "$1,250.50", Confidence: 1.0}},
		},
		{
			name: "year before amount is not part of it",
			text: "budget 2024 500 EUR approved",
			want: []core.Entity{{Type: core.EntityMoney, Value: "500 EUR", Confidence: 1.0}},
		},
		{
			name: "given name whitelist",
			text: "spotkanie z Piotr Wiśniewski jutro",
			want: []core.Entity{{Type: core.EntityPerson, Value: "Piotr Wiśniewski", Confidence: 0.85}},
		},
		{
			name: "unknown given name is ignored",
			text: "review with Zenon Kowal",
			want: nil,
		},
		{
			name: "name with time must start at a word",
			text: "McDonald Smith 7:10 PM",
			want: nil,
		},
		{
			name: "sentence person must end at a word",
			text: "Done. Anna McDonald joined",
			want: nil,
		},
		{
			name: "message to must start at a word",
			text: "xMessage to Oskar",
			want: nil,
		},
		{
			name: "currency code must end at a word",
			text: "order 2.500 PLNX shipped",
			want: nil,
		},
		{
			name: "lowercase organization words are not companies",
			text: "let's chat on slack or zoom later, apple pie for the meta team",
			want: nil,
		},
		{
			name: "gazetteer organization and place",
			text: "offer from Allegro office in Kraków",
			want: []core.Entity{
				{Type: core.EntityCompany, Value: "Allegro", Confidence: 1.0},
				{Type: core.EntityLocation, Value: "Kraków", Confidence: 1.0},
			},
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(context.Background(), tt.text)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestExtract_EarlierStageWins(t *testing.T) {
	e := New()
	// Stage 1 and stage 6 both see "Anna Nowak"; only the first is kept.
	got := e.Extract(context.Background(), "Anna Nowak 09:15 see you soon, anna nowak")

	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].Confidence)
}

func TestExtract_TaggerResultsAreTrusted(t *testing.T) {
	e := New(WithTagger(stubTagger{tags: []Tag{
		{Text: "Ola", Category: PersonalName},
		{Text: "Acme", Category: Organization},
		{Text: "Mars", Category: Place},
		{Text: "ignored", Category: "misc"},
	}}))

	got := e.Extract(context.Background(), "Ola from Acme on Mars")
	assert.ElementsMatch(t, []core.Entity{
		{Type: core.EntityPerson, Value: "Ola", Confidence: 1.0},
		{Type: core.EntityCompany, Value: "Acme", Confidence: 1.0},
		{Type: core.EntityLocation, Value: "Mars", Confidence: 1.0},
	}, got)
}

func TestExtract_TaggerFailureDegrades(t *testing.T) {
	e := New(WithTagger(stubTagger{err: errors.New("model offline")}))
	got := e.Extract(context.Background(), "write to ops@example.com")

	require.Len(t, got, 1)
	assert.Equal(t, core.EntityEmail, got[0].Type)
}

func TestExtract_CustomConfidences(t *testing.T) {
	conf := DefaultConfidences()
	conf.NameWithTime = 0.5
	e := New(WithConfidences(conf))

	got := e.Extract(context.Background(), "Jan Kowalski 10:42")
	require.Len(t, got, 1)
	assert.Equal(t, 0.5, got[0].Confidence)
}

func TestGazetteer_WholeWordsOnly(t *testing.T) {
	g := NewGazetteer([]string{"Ola"}, nil, nil)
	tags, err := g.Tag(context.Background(), "Olaf met Ola")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Ola", tags[0].Text)
	assert.Equal(t, 9, tags[0].Start)
}

func TestGazetteer_OrganizationsNeedCapitalization(t *testing.T) {
	g := DefaultGazetteer()
	tags, err := g.Tag(context.Background(), "let's chat on slack or zoom later, apple pie for the meta team")
	require.NoError(t, err)
	assert.Empty(t, tags)

	tags, err = g.Tag(context.Background(), "Slack call, then transfer via mBank")
	require.NoError(t, err)
	var texts []string
	for _, tag := range tags {
		texts = append(texts, tag.Text)
	}
	assert.ElementsMatch(t, []string{"Slack", "mBank"}, texts)
}

func TestGazetteer_PersonsMatchAnyCase(t *testing.T) {
	g := NewGazetteer([]string{"Marta Zielinska"}, nil, nil)
	tags, err := g.Tag(context.Background(), "lunch with marta zielinska")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, PersonalName, tags[0].Category)
}

func TestGazetteer_UnalignedLowercase(t *testing.T) {
	// U+0130 lowercases to a different byte length.
	g := NewGazetteer(nil, nil, []string{"Berlin"})
	tags, err := g.Tag(context.Background(), "İstanbul to BERLIN")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "BERLIN", tags[0].Text)
}
