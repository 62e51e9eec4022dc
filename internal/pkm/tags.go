package pkm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	defaultTagLimit = 10
	maxTagLimit     = 100
)

// TaggedItem is one resource carrying a tag. Kind is "bookmark" or a
// satellite kind.
type TaggedItem struct {
	Kind    string  `json:"kind"`
	ID      string  `json:"id"`
	Persona Persona `json:"persona"`
	Title   string  `json:"title"`
}

// ContentPage is one page of GetContentByTag.
type ContentPage struct {
	Tag      *Tag         `json:"tag"`
	Items    []TaggedItem `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// TagDrift records a usage count corrected by RecountTagUsage.
type TagDrift struct {
	TagID  string
	Name   string
	Stored int64
	Actual int64
}

func clampTagLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultTagLimit
	case limit > maxTagLimit:
		return maxTagLimit
	}
	return limit
}

// SearchTags returns the owner's tags whose name starts with prefix,
// ignoring case. Order: usage count descending, then case-insensitive name
// ascending, then raw name.
func (s *Service) SearchTags(ctx context.Context, ownerID, prefix string, limit int) ([]*Tag, error) {
	tags, err := s.database.SearchTags(ctx, ownerID, TagKey(prefix), clampTagLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tags: %w", err)
	}
	return tags, nil
}

// ListTags returns all of the owner's tags in SearchTags order.
func (s *Service) ListTags(ctx context.Context, ownerID string) ([]*Tag, error) {
	tags, err := s.database.ListTags(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// GetContentByTag resolves every bookmark and satellite carrying tagName.
// An unknown tag is *NotFoundError; a known tag with no content is an
// empty page.
func (s *Service) GetContentByTag(ctx context.Context, ownerID, tagName string, page, pageSize int) (*ContentPage, error) {
	tag, err := s.database.FindTagByName(ctx, ownerID, tagName)
	if err != nil {
		return nil, fmt.Errorf("finding tag: %w", err)
	}
	if tag == nil {
		return nil, notFound("tag", tagName)
	}

	q, _ := BookmarkQuery{Page: page, PageSize: pageSize}.normalize()
	items, total, err := s.database.ContentByTag(ctx, tag.ID, q.PageSize, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("resolving tag content: %w", err)
	}
	if items == nil {
		items = []TaggedItem{}
	}

	return &ContentPage{Tag: tag, Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// tagNames adapts a tag slice to fuzzy.Source.
type tagNames []*Tag

func (t tagNames) String(i int) string { return t[i].Name }
func (t tagNames) Len() int            { return len(t) }

// SuggestTags ranks the owner's tags by fuzzy similarity to query, for
// "did you mean" prompts. Equal scores fall back to usage count.
func (s *Service) SuggestTags(ctx context.Context, ownerID, query string, limit int) ([]*Tag, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Tag{}, nil
	}
	all, err := s.ListTags(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, tagNames(all))
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return all[matches[i].Index].UsageCount > all[matches[j].Index].UsageCount
	})

	limit = clampTagLimit(limit)
	out := make([]*Tag, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, all[m.Index])
	}
	return out, nil
}

// RecountTagUsage recomputes usage counts from the actual tag links and
// fixes any drift. Each corrected tag is logged as an inconsistency.
func (s *Service) RecountTagUsage(ctx context.Context, ownerID string) (int, error) {
	drifts, err := s.database.RecountTagUsage(ctx, ownerID, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("recounting tag usage: %w", err)
	}
	for _, d := range drifts {
		s.logger.Warn("tag usage drift corrected",
			"tag_id", d.TagID, "tag", d.Name, "stored", d.Stored, "actual", d.Actual,
			"error", ErrInconsistency)
	}
	return len(drifts), nil
}
