package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/witness/ai"
	"github.com/poiesic/witness/extract"
)

// scriptedModel returns canned responses in order.
type scriptedModel struct {
	responses []string
	err       error
	calls     int
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	r := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: r}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestTagger_Tag(t *testing.T) {
	model := &scriptedModel{responses: []string{"```json\n" + `{"entities":[
		{"text":"Kamil Moskała","category":"personal_name"},
		{"text":"Allegro","category":"Organization"},
		{"text":"Gotham","category":"place"},
		{"text":"pizza","category":"food"}
	]}` + "\n```"}}
	tagger := newTaggerWithModel(model)

	text := "Kamil Moskała 7:10 PM offer for Allegro"
	tags, err := tagger.Tag(context.Background(), text)
	require.NoError(t, err)

	require.Len(t, tags, 2)
	assert.Equal(t, extract.Tag{Start: 0, End: len("Kamil Moskała"), Text: "Kamil Moskała", Category: extract.PersonalName}, tags[0])
	assert.Equal(t, extract.Organization, tags[1].Category)
	assert.Equal(t, "Allegro", text[tags[1].Start:tags[1].End])
}

func TestTagger_RetriesMalformedJSON(t *testing.T) {
	model := &scriptedModel{responses: []string{
		`not json at all`,
		`{"entities":[{"text":"Anna",category":"personal_name"},]}`,
	}}
	tagger := newTaggerWithModel(model)

	tags, err := tagger.Tag(context.Background(), "Ask Anna")
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
	require.Len(t, tags, 1)
	assert.Equal(t, "Anna", tags[0].Text)
}

func TestTagger_GivesUpAfterRetries(t *testing.T) {
	model := &scriptedModel{responses: []string{`{{{`}}
	tagger := newTaggerWithModel(model)

	_, err := tagger.Tag(context.Background(), "anything")
	assert.Error(t, err)
	assert.Equal(t, maxAttempts, model.calls)
}

func TestTagger_ModelError(t *testing.T) {
	model := &scriptedModel{err: errors.New("connection refused")}
	tagger := newTaggerWithModel(model)

	_, err := tagger.Tag(context.Background(), "anything")
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 1, model.calls)
}

func TestLocateSpans_RepeatedSpans(t *testing.T) {
	text := "Anna met Anna"
	tags := locateSpans(text, []taggedSpan{
		{Text: "Anna", Category: "personal_name"},
		{Text: "Anna", Category: "personal_name"},
	})
	require.Len(t, tags, 2)
	assert.Equal(t, 0, tags[0].Start)
	assert.Equal(t, 9, tags[1].Start)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid json unchanged", `{"a":1}`, `{"a":1}`},
		{"missing key quote", `{"a":1, b":2}`, `{"a":1, "b":2}`},
		{"trailing comma in array", `{"a":[1,2,]}`, `{"a":[1,2]}`},
		{"trailing comma in object", "{\"a\":1,\n}", "{\"a\":1\n}"},
		{"comma in string kept", `{"a":"x,]"}`, `{"a":"x,]"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestNewTagger_NotConfigured(t *testing.T) {
	_, err := NewTagger(ai.NewConfig())
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestEmbedder_Unconfigured(t *testing.T) {
	e, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost("")))
	require.NoError(t, err)
	assert.False(t, e.IsConfigured())

	_, err = e.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
	_, err = e.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestNewProvider_WithoutTagger(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithEmbeddingHost("")))
	require.NoError(t, err)
	defer p.Close()

	assert.Nil(t, p.Tagger())
	assert.False(t, p.Embedder().IsConfigured())
}
