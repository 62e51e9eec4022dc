package textgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"pkm/internal/cache"
	"pkm/internal/config"
	"pkm/internal/pkm"
)

// NewFromConfig assembles the generator chain for cfg. Provider "genai" is
// wrapped in a fallback to the offline generator; a missing API key
// degrades to offline with a warning. When c is non-nil, results are cached
// for ttl.
func NewFromConfig(ctx context.Context, cfg config.TextGenConfig, c cache.Cache, ttl time.Duration, logger pkm.Logger, clock pkm.Clock) (pkm.TextGenerator, error) {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	offline := NewOfflineGenerator(clock)

	var gen pkm.TextGenerator
	switch cfg.Provider {
	case "", "offline":
		gen = offline
	case "genai":
		remote, err := NewGenAIGenerator(ctx, os.Getenv(cfg.APIKeyEnv), cfg.Model, cfg.Timeout.Duration, clock)
		if err != nil {
			if !errors.Is(err, ErrNoAPIKey) {
				return nil, err
			}
			logger.Warn("text generation API key not set, using offline generator", "env", cfg.APIKeyEnv)
			gen = offline
			break
		}
		gen = NewFallbackGenerator(remote, offline, logger)
	default:
		return nil, fmt.Errorf("unknown text generation provider: %q", cfg.Provider)
	}

	if c != nil {
		gen = NewCachedGenerator(gen, c, ttl, logger)
	}
	return gen, nil
}
