// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, extract.Tagger,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vectors, err := mockProvider.Embedder().EmbedTexts(ctx, []string{"test"})
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("backend down")
//	}
//
//	// Check calls
//	count := mockEmbedder.CallCount()
//	batches := mockEmbedder.Batches()
//
// # Default Behavior
//
//   - MockEmbedder: Configured, returns deterministic vectors based on text hash
//   - MockTagger: Returns no tags
//   - MockProvider: Aggregates mock embedder and tagger
//
// All mocks are safe for concurrent use.
package mock
