package pkm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ContentType selects what a TextGenerator writes.
type ContentType string

const (
	GenerateSummary    ContentType = "summary"
	GenerateOutline    ContentType = "outline"
	GenerateStudyNotes ContentType = "study_notes"
	GenerateBlogPost   ContentType = "blog_post"
	GenerateSocialPost ContentType = "social_post"
	GeneratePitch      ContentType = "pitch"
)

func (t ContentType) Valid() bool {
	switch t {
	case GenerateSummary, GenerateOutline, GenerateStudyNotes, GenerateBlogPost, GenerateSocialPost, GeneratePitch:
		return true
	}
	return false
}

// LengthHint is a soft target for generated text.
type LengthHint string

const (
	LengthShort  LengthHint = "short"
	LengthMedium LengthHint = "medium"
	LengthLong   LengthHint = "long"
)

func (l LengthHint) Valid() bool {
	return l == LengthShort || l == LengthMedium || l == LengthLong
}

// GenerateRequest is one request to the text service.
type GenerateRequest struct {
	Type       ContentType `json:"type"`
	Prompt     string      `json:"prompt"`
	Subject    string      `json:"subject"`
	LengthHint LengthHint  `json:"lengthHint"`
}

// Validate applies defaults and checks the enumerations.
func (r *GenerateRequest) Validate() error {
	if r.LengthHint == "" {
		r.LengthHint = LengthMedium
	}
	v := &validator{}
	if !r.Type.Valid() {
		v.add("type", "unknown content type %q", r.Type)
	}
	if !r.LengthHint.Valid() {
		v.add("lengthHint", "must be short, medium or long")
	}
	if strings.TrimSpace(r.Prompt) == "" && strings.TrimSpace(r.Subject) == "" {
		v.add("prompt", "prompt or subject is required")
	}
	return v.err()
}

// GenerateMetadata describes how a result was produced.
type GenerateMetadata struct {
	Source      string      `json:"source"`
	Model       string      `json:"model,omitempty"`
	Type        ContentType `json:"type"`
	LengthHint  LengthHint  `json:"lengthHint"`
	WordCount   int         `json:"wordCount"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// GenerateResult is the shape every generator returns, remote or offline.
type GenerateResult struct {
	Content  string           `json:"content"`
	Metadata GenerateMetadata `json:"metadata"`
}

// TextGenerator is the external text-generation collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// DraftBookmarkSummary asks the text service for a summary of a bookmark.
// The result is returned to the caller and not stored.
func (s *Service) DraftBookmarkSummary(ctx context.Context, ownerID, id string, length LengthHint) (*GenerateResult, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("no text generator configured")
	}
	b, err := s.GetBookmark(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	prompt := b.Title
	if b.Description != "" {
		prompt += "\n\n" + b.Description
	}
	req := GenerateRequest{
		Type:       GenerateSummary,
		Prompt:     prompt,
		Subject:    b.Title,
		LengthHint: length,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generating summary: %w", err)
	}
	s.logger.Debug("bookmark summary drafted", "bookmark_id", id, "source", res.Metadata.Source, "words", res.Metadata.WordCount)
	return res, nil
}
