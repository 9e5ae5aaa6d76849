package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateContextChunk(t *testing.T) {
	now := time.Now()
	valid := func() *ContextChunk {
		return &ContextChunk{
			ID:        "01HZX",
			Timestamp: now,
			Source:    SourceNotes,
			Content:   "Roadmap review on Thursday",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *ContextChunk)
		nilIn   bool
		wantErr error
	}{
		{name: "valid chunk", mutate: func(c *ContextChunk) {}},
		{name: "nil chunk", nilIn: true, wantErr: ErrInvalidChunk},
		{name: "empty id", mutate: func(c *ContextChunk) { c.ID = "" }, wantErr: ErrEmptyID},
		{name: "empty content", mutate: func(c *ContextChunk) { c.Content = "" }, wantErr: ErrEmptyContent},
		{
			name:    "content too long",
			mutate:  func(c *ContextChunk) { c.Content = strings.Repeat("a", MaxContentLength+1) },
			wantErr: ErrContentTooLong,
		},
		{name: "unknown source", mutate: func(c *ContextChunk) { c.Source = "fax" }, wantErr: ErrInvalidSource},
		{name: "zero timestamp", mutate: func(c *ContextChunk) { c.Timestamp = time.Time{} }, wantErr: ErrMissingTimestamp},
		{
			name: "bad entity confidence",
			mutate: func(c *ContextChunk) {
				c.Entities = []Entity{{Type: EntityPerson, Value: "Jan Kowalski", Confidence: 1.5}}
			},
			wantErr: ErrInvalidEntity,
		},
		{
			name: "unknown entity type",
			mutate: func(c *ContextChunk) {
				c.Entities = []Entity{{Type: "vehicle", Value: "bike", Confidence: 0.5}}
			},
			wantErr: ErrInvalidEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var chunk *ContextChunk
			if !tt.nilIn {
				chunk = valid()
				tt.mutate(chunk)
			}
			err := ValidateContextChunk(chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
