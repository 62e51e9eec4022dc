package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"pkm/internal/pkm"
)

const DefaultModel = "gemini-2.5-flash"

// contentGenerator is the part of *genai.Models the generator uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIGenerator asks a Gemini model for the content.
type GenAIGenerator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	clock   pkm.Clock
}

var _ pkm.TextGenerator = (*GenAIGenerator)(nil)

// NewGenAIGenerator creates a Gemini client for apiKey. A zero timeout means
// the caller's context alone bounds each call.
func NewGenAIGenerator(ctx context.Context, apiKey, model string, timeout time.Duration, clock pkm.Clock) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAIGenerator(client.Models, model, timeout, clock), nil
}

func newGenAIGenerator(models contentGenerator, model string, timeout time.Duration, clock pkm.Clock) *GenAIGenerator {
	if model == "" {
		model = DefaultModel
	}
	if clock == nil {
		clock = pkm.RealClock{}
	}
	return &GenAIGenerator{models: models, model: model, timeout: timeout, clock: clock}
}

var instructions = map[pkm.ContentType]string{
	pkm.GenerateSummary:    "Summarize the material for someone deciding whether to read it.",
	pkm.GenerateOutline:    "Write a numbered outline with short section headings.",
	pkm.GenerateStudyNotes: "Write study notes as bullet points and finish with two review questions.",
	pkm.GenerateBlogPost:   "Write a blog post in Markdown with a title and section headings.",
	pkm.GenerateSocialPost: "Write a single social media post of at most 280 characters.",
	pkm.GeneratePitch:      "Write a short pitch covering the problem, the solution and the ask.",
}

var lengthWords = map[pkm.LengthHint]string{
	pkm.LengthShort:  "Keep it under 80 words.",
	pkm.LengthMedium: "Aim for about 250 words.",
	pkm.LengthLong:   "Aim for about 600 words.",
}

func buildPrompt(req pkm.GenerateRequest) string {
	var b strings.Builder
	if req.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n\n", req.Subject)
	}
	b.WriteString(req.Prompt)
	return strings.TrimSpace(b.String())
}

func (g *GenAIGenerator) Generate(ctx context.Context, req pkm.GenerateRequest) (*pkm.GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	system := instructions[req.Type] + " " + lengthWords[req.LengthHint] + " Reply with the content only."
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
	}
	contents := []*genai.Content{
		genai.NewContentFromText(buildPrompt(req), genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		return nil, ErrEmptyContent
	}

	return &pkm.GenerateResult{
		Content: text,
		Metadata: pkm.GenerateMetadata{
			Source:      SourceGenAI,
			Model:       g.model,
			Type:        req.Type,
			LengthHint:  req.LengthHint,
			WordCount:   wordCount(text),
			GeneratedAt: g.clock.Now(),
		},
	}, nil
}
