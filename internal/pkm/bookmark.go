package pkm

import (
	"strings"
	"time"
)

// Priority ranks bookmarks within a persona.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is low, medium or high.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TagRef is the public view of a tag attached to a resource.
type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bookmark is a saved URL owned by one persona of one owner.
type Bookmark struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	Persona     Persona    `json:"persona"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	ShortURL    string     `json:"shortUrl,omitempty"`
	Clicks      int64      `json:"clicks"`
	VisitCount  int64      `json:"visitCount"`
	LastVisited *time.Time `json:"lastVisited,omitempty"`
	IsArchived  bool       `json:"isArchived"`
	IsPublic    bool       `json:"isPublic"`
	Priority    Priority   `json:"priority"`
	FolderIDs   []string   `json:"folderIds"`
	Tags        []TagRef   `json:"tags"`
	Metadata    Metadata   `json:"metadata"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

// Deleted reports whether the bookmark is a tombstone.
func (b *Bookmark) Deleted() bool { return b.DeletedAt != nil }

// BookmarkInput carries the attributes accepted on creation.
type BookmarkInput struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ShortURL    string   `json:"shortUrl"`
	IsPublic    bool     `json:"isPublic"`
	Priority    Priority `json:"priority"`
	FolderIDs   []string `json:"folderIds"`
	Tags        []string `json:"tags"`
	Metadata    Metadata `json:"metadata"`
}

// BookmarkPatch is a partial update. Nil fields are left untouched.
type BookmarkPatch struct {
	URL         *string   `json:"url,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	ShortURL    *string   `json:"shortUrl,omitempty"`
	IsPublic    *bool     `json:"isPublic,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	FolderIDs   *[]string `json:"folderIds,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// VisitStats is what RecordVisit reports back.
type VisitStats struct {
	VisitCount  int64     `json:"visitCount"`
	LastVisited time.Time `json:"lastVisited"`
}

// Folder groups bookmarks within a persona.
type Folder struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Persona   Persona   `json:"persona"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tag is an owner-wide label, deduplicated case-insensitively.
// UsageCount counts every bookmark and satellite currently carrying it.
type Tag struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Persona    Persona   `json:"persona"`
	Name       string    `json:"name"`
	UsageCount int64     `json:"usageCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TagKey is the case-insensitive identity of a tag name.
func TagKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }
