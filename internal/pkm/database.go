package pkm

import (
	"context"
	"time"
)

// Database is the persistence contract of the engine. Implementations run
// each method in its own transaction and apply counter changes as single
// storage-side statements (col = col + 1), never read-modify-write.
//
// Find/Get methods return (nil, nil) when nothing matches. Mutations on a
// missing record return a *NotFoundError. A context that expires mid-call
// surfaces as ErrTimeout.
type Database interface {
	// Bookmark operations

	// InsertBookmark stores b, links its folders, and find-or-creates the
	// named tags, bumping their usage. b.Tags is filled on success.
	// Returns *DuplicateError on a (url, owner, persona) or shortUrl clash.
	InsertBookmark(ctx context.Context, b *Bookmark, tagNames []string) error

	// GetBookmark returns a live bookmark of ownerID.
	GetBookmark(ctx context.Context, ownerID, id string) (*Bookmark, error)

	// FindBookmarkIncludingDeleted also returns tombstones.
	FindBookmarkIncludingDeleted(ctx context.Context, ownerID, id string) (*Bookmark, error)

	// UpdateBookmark writes the scalar fields of b. A non-nil tagNames or
	// folderIDs replaces that set; nil leaves it unchanged.
	UpdateBookmark(ctx context.Context, b *Bookmark, tagNames, folderIDs []string) error

	// SoftDeleteBookmark tombstones the bookmark and detaches its tags.
	// Satellite references are left in place.
	SoftDeleteBookmark(ctx context.Context, ownerID, id string, at time.Time) error

	// IncrementVisit bumps visit_count and sets last_visited in one statement.
	IncrementVisit(ctx context.Context, ownerID, id string, at time.Time) (*VisitStats, error)

	// ToggleArchive flips is_archived in one statement and returns the new value.
	ToggleArchive(ctx context.Context, ownerID, id string, at time.Time) (bool, error)

	// SetArchived sets is_archived to a fixed value.
	SetArchived(ctx context.Context, ownerID, id string, archived bool, at time.Time) error

	// SetCategory overwrites the bookmark category.
	SetCategory(ctx context.Context, ownerID, id, category string, at time.Time) error

	// MoveToFolder replaces the folder set of a bookmark with folderID.
	// The folder must belong to the bookmark's owner and persona.
	MoveToFolder(ctx context.Context, ownerID, id, folderID string, at time.Time) error

	// IncrementClicks bumps clicks for the live bookmark behind shortURL.
	IncrementClicks(ctx context.Context, shortURL string, at time.Time) (*Bookmark, error)

	// ListBookmarks returns one page of live bookmarks and the total match
	// count. q is already normalized.
	ListBookmarks(ctx context.Context, ownerID string, persona Persona, q BookmarkQuery) ([]*Bookmark, int, error)

	// Folder operations

	InsertFolder(ctx context.Context, f *Folder) error
	GetFolder(ctx context.Context, ownerID, id string) (*Folder, error)
	FindFolderByName(ctx context.Context, ownerID string, persona Persona, name string) (*Folder, error)
	ListFolders(ctx context.Context, ownerID string, persona Persona) ([]*Folder, error)
	// DeleteFolder removes the folder and its memberships, never bookmarks.
	DeleteFolder(ctx context.Context, ownerID, id string) error

	// Tag operations

	// SearchTags matches the lowercased name prefix, ordered by usage desc,
	// then case-insensitive name, then name.
	SearchTags(ctx context.Context, ownerID, prefix string, limit int) ([]*Tag, error)
	ListTags(ctx context.Context, ownerID string) ([]*Tag, error)
	FindTagByName(ctx context.Context, ownerID, name string) (*Tag, error)
	// ContentByTag lists live bookmarks and satellites carrying tagID, newest first.
	ContentByTag(ctx context.Context, tagID string, limit, offset int) ([]TaggedItem, int, error)
	// RecountTagUsage recomputes usage counts from the link tables and
	// returns the tags whose stored count had drifted.
	RecountTagUsage(ctx context.Context, ownerID string, at time.Time) ([]TagDrift, error)

	// Satellite operations

	InsertSatellite(ctx context.Context, s *Satellite, tagNames []string) error
	GetSatellite(ctx context.Context, ownerID, id string) (*Satellite, error)
	ListSatellites(ctx context.Context, ownerID string, persona Persona, kind SatelliteKind) ([]*Satellite, error)
	UpdateSatelliteStatus(ctx context.Context, ownerID, id, status string, at time.Time) error
	// AttachResource adds bookmarkID to the satellite's resources. Adding an
	// existing edge is a no-op.
	AttachResource(ctx context.Context, satelliteID, bookmarkID string, at time.Time) error
	// DetachResource removes the edge if present.
	DetachResource(ctx context.Context, satelliteID, bookmarkID string) error
	// SatelliteResources resolves every bookmark a satellite cites, deleted
	// ones included.
	SatelliteResources(ctx context.Context, satelliteID string) ([]ResourceRef, error)
	// FindReferrers is the fan-out over satellite_resources for one bookmark.
	FindReferrers(ctx context.Context, ownerID, bookmarkID string) ([]Referrer, error)

	// Planner operations

	InsertPlannerEntry(ctx context.Context, e *PlannerEntry) error
	GetPlannerEntry(ctx context.Context, ownerID, id string) (*PlannerEntry, error)
	UpdatePlannerEntry(ctx context.Context, e *PlannerEntry) error
	ListPlannerEntries(ctx context.Context, ownerID string, persona Persona, from, to time.Time) ([]*PlannerEntry, error)

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(ctx context.Context, destPath string) error

	// CheckMigrations returns an error unless the schema is current.
	CheckMigrations() error

	Close() error
}
