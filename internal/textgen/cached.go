package textgen

import (
	"context"
	"encoding/json"
	"time"

	"pkm/internal/cache"
	"pkm/internal/pkm"
)

// CachedGenerator memoizes results of next. Offline results are not stored
// so a recovered provider is used again as soon as it is back. Cache
// failures are logged and otherwise ignored.
type CachedGenerator struct {
	next   pkm.TextGenerator
	cache  cache.Cache
	ttl    time.Duration
	logger pkm.Logger
}

var _ pkm.TextGenerator = (*CachedGenerator)(nil)

func NewCachedGenerator(next pkm.TextGenerator, c cache.Cache, ttl time.Duration, logger pkm.Logger) *CachedGenerator {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	return &CachedGenerator{next: next, cache: c, ttl: ttl, logger: logger}
}

func requestKey(req pkm.GenerateRequest) string {
	return cache.Key("gen", string(req.Type), string(req.LengthHint), req.Subject, req.Prompt)
}

func (g *CachedGenerator) Generate(ctx context.Context, req pkm.GenerateRequest) (*pkm.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := requestKey(req)

	data, ok, err := g.cache.Get(ctx, key)
	switch {
	case err != nil:
		g.logger.Warn("generation cache read failed", "key", key, "error", err)
	case ok:
		var res pkm.GenerateResult
		if err := json.Unmarshal(data, &res); err == nil {
			g.logger.Debug("generation cache hit", "key", key)
			return &res, nil
		}
		g.logger.Warn("discarding unreadable cache entry", "key", key)
	}

	res, err := g.next.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Metadata.Source == SourceOffline {
		return res, nil
	}

	data, err = json.Marshal(res)
	if err != nil {
		g.logger.Warn("encoding generation result failed", "error", err)
		return res, nil
	}
	if err := g.cache.Set(ctx, key, data, g.ttl); err != nil {
		g.logger.Warn("generation cache write failed", "key", key, "error", err)
	}
	return res, nil
}
