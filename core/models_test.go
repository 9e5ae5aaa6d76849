package core

import (
	"testing"
	"time"
)

func TestHashContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty string", content: ""},
		{name: "unicode content", content: "Kamil Moskała 7:10 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if HashContent(tt.content) != HashContent(tt.content) {
				t.Errorf("HashContent() produced different hashes for the same content")
			}
		})
	}
}

func TestHashContent_Different(t *testing.T) {
	if HashContent("content1") == HashContent("content2") {
		t.Errorf("HashContent() produced the same hash for different content")
	}
}

func TestNewChunkID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewChunkID()
		if seen[id] {
			t.Fatalf("NewChunkID() returned duplicate %s", id)
		}
		seen[id] = true
	}
}

func TestMergeEntities(t *testing.T) {
	list := []Entity{{Type: EntityPerson, Value: "Anna Nowak", Confidence: 0.9}}

	got := MergeEntities(list,
		Entity{Type: EntityPerson, Value: "anna nowak", Confidence: 1.0},
		Entity{Type: EntityEmail, Value: "anna@example.com", Confidence: 1.0},
		Entity{Type: EntityOther, Value: ""},
	)

	if len(got) != 2 {
		t.Fatalf("MergeEntities() returned %d entities, want 2", len(got))
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("first occurrence should win, got confidence %v", got[0].Confidence)
	}
	if got[1].Type != EntityEmail {
		t.Errorf("got[1].Type = %s, want email", got[1].Type)
	}
}

func TestContextChunk_WithEmbeddingKeepsOriginal(t *testing.T) {
	original := &ContextChunk{
		ID:        NewChunkID(),
		Timestamp: time.Now(),
		Source:    SourceSlack,
		Content:   "Quarterly planning notes",
		Metadata:  map[string]string{"app": "Slack"},
	}

	enriched := original.WithEmbedding([]float32{0.1, 0.2})
	enriched.Metadata["app"] = "changed"

	if original.HasEmbedding() {
		t.Error("original chunk must not gain an embedding")
	}
	if !enriched.HasEmbedding() {
		t.Error("enriched chunk should carry the embedding")
	}
	if enriched.ID != original.ID {
		t.Error("enriched chunk must share the original ID")
	}
	if original.Metadata["app"] != "Slack" {
		t.Error("metadata must be copied, not shared")
	}
}

func TestContextChunk_WithEnrichment(t *testing.T) {
	original := &ContextChunk{ID: "a", Content: "x", Topic: "email"}
	entities := []Entity{{Type: EntityProject, Value: "launch", Confidence: 0.8}}

	updated := original.WithEnrichment(entities, "project")

	if original.Topic != "email" || len(original.Entities) != 0 {
		t.Error("original chunk was modified")
	}
	if updated.Topic != "project" || len(updated.Entities) != 1 {
		t.Errorf("updated = %+v", updated)
	}
}
