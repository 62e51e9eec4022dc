package pkm

import (
	"context"
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortField is a bookmark attribute list results may be ordered by.
type SortField string

const (
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortTitle       SortField = "title"
	SortVisitCount  SortField = "visitCount"
	SortClicks      SortField = "clicks"
	SortLastVisited SortField = "lastVisited"
)

func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortTitle, SortVisitCount, SortClicks, SortLastVisited:
		return true
	}
	return false
}

// SortOrder is "asc" or "desc".
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// BookmarkQuery filters, sorts and pages a persona's live bookmarks.
// Tags use AND semantics. Archived nil matches both states.
type BookmarkQuery struct {
	FolderID string
	Tags     []string
	Search   string
	Archived *bool
	Sort     SortField
	Order    SortOrder
	Page     int
	PageSize int
}

// BookmarkPage is one page of a listing plus the total match count.
type BookmarkPage struct {
	Items    []*Bookmark `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt so a huge page stays past the end instead of wrapping.
func (q BookmarkQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// normalize applies defaults and rejects unknown sort keys.
func (q BookmarkQuery) normalize() (BookmarkQuery, error) {
	v := &validator{}
	if q.Sort == "" {
		q.Sort = SortCreatedAt
	}
	if !q.Sort.Valid() {
		v.add("sort", "unknown sort field %q", q.Sort)
	}
	switch SortOrder(strings.ToLower(string(q.Order))) {
	case "", SortDesc:
		q.Order = SortDesc
	case SortAsc:
		q.Order = SortAsc
	default:
		v.add("order", "must be asc or desc")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	tags := q.Tags[:0:0]
	seen := map[string]bool{}
	for _, t := range q.Tags {
		key := TagKey(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, key)
	}
	q.Tags = tags
	return q, v.err()
}

// ListBookmarks returns one page of the persona's live bookmarks matching q.
// A page past the end is an empty page with the correct total.
func (s *Service) ListBookmarks(ctx context.Context, ownerID string, persona Persona, q BookmarkQuery) (*BookmarkPage, error) {
	if !persona.Valid() {
		return nil, &ValidationError{Violations: []Violation{{Field: "persona", Message: fmt.Sprintf("unknown persona %q", persona)}}}
	}
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	items, total, err := s.database.ListBookmarks(ctx, ownerID, persona, q)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	if items == nil {
		items = []*Bookmark{}
	}

	return &BookmarkPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}
