package textgen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"pkm/internal/pkm"
	"pkm/internal/testutil"
)

type fakeModels struct {
	text     string
	err      error
	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model, f.contents, f.config = model, contents, config
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGenAIGenerator_Generate(t *testing.T) {
	clock := testutil.FixedClock()
	fake := &fakeModels{text: "  A tidy summary.  "}
	g := newGenAIGenerator(fake, "", time.Second, clock)

	res, err := g.Generate(context.Background(), pkm.GenerateRequest{
		Type: pkm.GenerateSummary, Subject: "Go", Prompt: "Go is a language.", LengthHint: pkm.LengthShort,
	})
	require.NoError(t, err)

	assert.Equal(t, "A tidy summary.", res.Content)
	assert.Equal(t, pkm.GenerateMetadata{
		Source: SourceGenAI, Model: DefaultModel, Type: pkm.GenerateSummary,
		LengthHint: pkm.LengthShort, WordCount: 3, GeneratedAt: clock.Now(),
	}, res.Metadata)

	assert.Equal(t, DefaultModel, fake.model)
	assert.True(t, fake.deadline, "timeout is applied to the call")
	require.Len(t, fake.contents, 1)
	assert.Equal(t, "Subject: Go\n\nGo is a language.", fake.contents[0].Parts[0].Text)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Contains(t, fake.config.SystemInstruction.Parts[0].Text, "under 80 words")
}

func TestGenAIGenerator_Errors(t *testing.T) {
	ctx := context.Background()
	req := pkm.GenerateRequest{Type: pkm.GeneratePitch, Prompt: "p"}

	t.Run("provider error", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		_, err := newGenAIGenerator(&fakeModels{err: boom}, "m", 0, nil).Generate(ctx, req)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty reply", func(t *testing.T) {
		_, err := newGenAIGenerator(&fakeModels{text: " "}, "m", 0, nil).Generate(ctx, req)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("invalid request never reaches the provider", func(t *testing.T) {
		fake := &fakeModels{text: "x"}
		_, err := newGenAIGenerator(fake, "m", 0, nil).Generate(ctx, pkm.GenerateRequest{Type: "poem", Prompt: "p"})
		assert.ErrorIs(t, err, pkm.ErrValidation)
		assert.Zero(t, fake.calls)
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := NewGenAIGenerator(ctx, "", "", 0, nil)
		assert.ErrorIs(t, err, ErrNoAPIKey)
	})
}
