package textgen

import (
	"context"
	"errors"

	"pkm/internal/pkm"
)

// FallbackGenerator tries primary and, on any failure other than an invalid
// request, answers from fallback instead.
type FallbackGenerator struct {
	primary  pkm.TextGenerator
	fallback pkm.TextGenerator
	logger   pkm.Logger
}

var _ pkm.TextGenerator = (*FallbackGenerator)(nil)

func NewFallbackGenerator(primary, fallback pkm.TextGenerator, logger pkm.Logger) *FallbackGenerator {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	return &FallbackGenerator{primary: primary, fallback: fallback, logger: logger}
}

func (g *FallbackGenerator) Generate(ctx context.Context, req pkm.GenerateRequest) (*pkm.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := g.primary.Generate(ctx, req)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, pkm.ErrValidation) {
		return nil, err
	}
	g.logger.Warn("text generation failed, using fallback", "type", req.Type, "error", err)
	// The caller's context may be the reason primary failed.
	return g.fallback.Generate(context.WithoutCancel(ctx), req)
}
