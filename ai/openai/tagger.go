// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/witness/ai"
	"github.com/poiesic/witness/extract"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxAttempts bounds retries on malformed model output.
const maxAttempts = 3

// Tagger implements extract.Tagger using OpenAI-compatible chat APIs.
type Tagger struct {
	client llms.Model
	logger *slog.Logger
}

// taggedSpan is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type taggedSpan struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// tagging is the wrapper structure for the LLM's JSON response.
type tagging struct {
	Entities []taggedSpan `json:"entities"`
}

// newTagger is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTagger(config *ai.Config) (*Tagger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !config.TaggerConfigured() {
		return nil, ai.ErrNotConfigured
	}

	client, err := openai.New(
		openai.WithBaseURL(config.TaggerHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.TaggerModel),
	)
	if err != nil {
		return nil, err
	}

	return newTaggerWithModel(client), nil
}

func newTaggerWithModel(client llms.Model) *Tagger {
	return &Tagger{
		client: client,
		logger: slog.Default().With("component", "openai-tagger"),
	}
}

// NewTagger creates a new model-backed tagger using the provided configuration.
// Returns ai.ErrNotConfigured when no tagger host is set.
//
// Returns extract.Tagger interface to enforce abstraction.
func NewTagger(config *ai.Config) (extract.Tagger, error) {
	return newTagger(config)
}

// Tag asks the model for names, organizations and places in text. Spans the
// model returns that do not occur in text are dropped.
func (t *Tagger) Tag(ctx context.Context, text string) ([]extract.Tag, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try a few times in case of malformed JSON
	var result tagging
	var lastErr error
	for attempt := range maxAttempts {
		response, err := t.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			t.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			t.logger.Debug("no choices returned from model")
			return nil, nil
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		result = tagging{}
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			t.logger.Warn("error parsing tagger response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		t.logger.Error("failed to parse tagger response after retries", "err", lastErr)
		return nil, lastErr
	}

	return locateSpans(text, result.Entities), nil
}

// locateSpans maps model output back onto byte offsets in text. Repeated
// spans are located at successive occurrences.
func locateSpans(text string, spans []taggedSpan) []extract.Tag {
	tags := make([]extract.Tag, 0, len(spans))
	next := make(map[string]int)
	for _, s := range spans {
		category := extract.Category(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s.Category), " ", "_")))
		switch category {
		case extract.PersonalName, extract.Organization, extract.Place:
		default:
			continue
		}
		span := trimSpan(s.Text)
		if span == "" {
			continue
		}
		from := next[span]
		i := strings.Index(text[from:], span)
		if i < 0 {
			continue
		}
		start := from + i
		end := start + len(span)
		next[span] = end
		tags = append(tags, extract.Tag{Start: start, End: end, Text: span, Category: category})
	}
	return tags
}
