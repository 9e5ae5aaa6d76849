package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Empty(t, cfg.TaggerHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.True(t, cfg.EmbeddingConfigured())
	assert.False(t, cfg.TaggerConfigured())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("with shared host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.TaggerHost)
	})

	t.Run("with separate hosts and models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithTaggerHost("http://tag:9090/v1"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithTaggerModel("gpt-4o-mini"),
			WithToken("sk-test"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://tag:9090/v1", cfg.TaggerHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.TaggerModel)
		assert.Equal(t, "sk-test", cfg.Token)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"already has suffix", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, "none", cfg.Token)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("unconfigured embedder is valid", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost(""))
		require.NoError(t, cfg.Validate())
		assert.False(t, cfg.EmbeddingConfigured())
	})

	t.Run("embedding host without model", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingModel(""))
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("tagger host without model", func(t *testing.T) {
		cfg := NewConfig(WithTaggerHost("http://tag"), WithTaggerModel(""))
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("normalizes before validating", func(t *testing.T) {
		cfg := NewConfig(WithTaggerHost("http://tag:1234"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://tag:1234/v1", cfg.TaggerHost)
	})
}
