package textgen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkm/internal/cache"
	"pkm/internal/config"
	"pkm/internal/testutil"
)

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("offline", func(t *testing.T) {
		g, err := NewFromConfig(ctx, config.TextGenConfig{Provider: "offline"}, nil, 0, nil, nil)
		require.NoError(t, err)
		assert.IsType(t, &OfflineGenerator{}, g)
	})

	t.Run("genai without key degrades to offline", func(t *testing.T) {
		t.Setenv("PKM_TEST_GENAI_KEY", "")
		logger := testutil.NewRecordingLogger()
		g, err := NewFromConfig(ctx, config.TextGenConfig{Provider: "genai", APIKeyEnv: "PKM_TEST_GENAI_KEY"}, nil, 0, logger, nil)
		require.NoError(t, err)
		assert.IsType(t, &OfflineGenerator{}, g)
		assert.Len(t, logger.Entries("warn"), 1)
	})

	t.Run("genai with key", func(t *testing.T) {
		t.Setenv("PKM_TEST_GENAI_KEY", "test-key")
		g, err := NewFromConfig(ctx, config.TextGenConfig{
			Provider: "genai", APIKeyEnv: "PKM_TEST_GENAI_KEY", Model: "gemini-test",
			Timeout: config.Duration{Duration: time.Second},
		}, cache.NewMemoryCache(nil), time.Hour, nil, nil)
		require.NoError(t, err)

		cached, ok := g.(*CachedGenerator)
		require.True(t, ok, "got %T", g)
		fb, ok := cached.next.(*FallbackGenerator)
		require.True(t, ok, "got %T", cached.next)
		remote, ok := fb.primary.(*GenAIGenerator)
		require.True(t, ok)
		assert.Equal(t, "gemini-test", remote.model)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewFromConfig(ctx, config.TextGenConfig{Provider: "oracle"}, nil, 0, nil, nil)
		assert.ErrorContains(t, err, "unknown text generation provider")
	})
}
