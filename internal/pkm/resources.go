package pkm

import (
	"context"
	"fmt"
	"strings"
)

func validateBookmarkInput(v *validator, persona Persona, in BookmarkInput) {
	v.persona(persona)
	v.url("url", in.URL)
	v.title(in.Title)
	v.maxLen("description", in.Description, maxDescriptionLen)
	v.maxLen("category", in.Category, maxCategoryLen)
	v.shortURL(in.ShortURL)
	if in.Priority != "" {
		v.priority(in.Priority)
	}
	v.tags(in.Tags)
}

// validatePatch checks only the fields the patch touches.
func validatePatch(v *validator, p BookmarkPatch) {
	if p.URL != nil {
		v.url("url", *p.URL)
	}
	if p.Title != nil {
		v.title(*p.Title)
	}
	if p.Description != nil {
		v.maxLen("description", *p.Description, maxDescriptionLen)
	}
	if p.Category != nil {
		v.maxLen("category", *p.Category, maxCategoryLen)
	}
	if p.ShortURL != nil {
		v.shortURL(*p.ShortURL)
	}
	if p.Priority != nil {
		v.priority(*p.Priority)
	}
	if p.Tags != nil {
		v.tags(*p.Tags)
	}
}

// checkFolders adds a violation to v for every folder missing from the
// owner's persona. Only lookup failures are returned.
func (s *Service) checkFolders(ctx context.Context, v *validator, ownerID string, persona Persona, ids []string) error {
	for _, id := range ids {
		f, err := s.database.GetFolder(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("finding folder: %w", err)
		}
		if f == nil || f.Persona != persona {
			v.add("folderIds", "folder %s does not exist in persona %s", id, persona)
		}
	}
	return nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// CreateBookmark validates and stores a new bookmark in persona. Every
// violated constraint is reported together; a (url, owner, persona) or
// shortUrl clash yields *DuplicateError.
func (s *Service) CreateBookmark(ctx context.Context, ownerID string, persona Persona, in BookmarkInput) (*Bookmark, error) {
	v := &validator{}
	validateBookmarkInput(v, persona, in)
	folderIDs := dedupe(in.FolderIDs)
	if err := s.checkFolders(ctx, v, ownerID, persona, folderIDs); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	normalized := NormalizeURL(in.URL)
	now := s.clock.Now()

	b := &Bookmark{
		ID:          s.idgen.New(),
		OwnerID:     ownerID,
		Persona:     persona,
		URL:         normalized,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		ShortURL:    in.ShortURL,
		IsPublic:    in.IsPublic,
		Priority:    priority,
		FolderIDs:   folderIDs,
		Metadata:    deriveMetadata(normalized, in.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.database.InsertBookmark(ctx, b, dedupe(in.Tags)); err != nil {
		return nil, fmt.Errorf("creating bookmark: %w", err)
	}

	s.logger.Info("bookmark created", "bookmark_id", b.ID, "owner_id", ownerID, "persona", persona, "domain", b.Metadata.Domain)
	return b, nil
}

// GetBookmark returns a live bookmark or *NotFoundError.
func (s *Service) GetBookmark(ctx context.Context, ownerID, id string) (*Bookmark, error) {
	b, err := s.database.GetBookmark(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("finding bookmark: %w", err)
	}
	if b == nil {
		return nil, notFound("bookmark", id)
	}
	return b, nil
}

// UpdateBookmark merges the supplied fields into a live bookmark. Only
// those fields are re-validated.
func (s *Service) UpdateBookmark(ctx context.Context, ownerID, id string, patch BookmarkPatch) (*Bookmark, error) {
	b, err := s.GetBookmark(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	v := &validator{}
	validatePatch(v, patch)
	var tagNames, folderIDs []string
	if patch.FolderIDs != nil {
		folderIDs = dedupe(*patch.FolderIDs)
		if err := s.checkFolders(ctx, v, ownerID, b.Persona, folderIDs); err != nil {
			return nil, err
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if patch.FolderIDs != nil {
		b.FolderIDs = folderIDs
	}
	if patch.Tags != nil {
		tagNames = dedupe(*patch.Tags)
	}
	if patch.URL != nil {
		b.URL = NormalizeURL(*patch.URL)
	}
	if patch.Title != nil {
		b.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.Category != nil {
		b.Category = *patch.Category
	}
	if patch.ShortURL != nil {
		b.ShortURL = *patch.ShortURL
	}
	if patch.IsPublic != nil {
		b.IsPublic = *patch.IsPublic
	}
	if patch.Priority != nil {
		b.Priority = *patch.Priority
	}
	if patch.Metadata != nil {
		b.Metadata = *patch.Metadata
	}
	if patch.URL != nil || patch.Metadata != nil {
		b.Metadata = deriveMetadata(b.URL, b.Metadata)
	}
	b.UpdatedAt = s.clock.Now()

	if err := s.database.UpdateBookmark(ctx, b, tagNames, folderIDs); err != nil {
		return nil, fmt.Errorf("updating bookmark: %w", err)
	}

	s.logger.Debug("bookmark updated", "bookmark_id", id, "owner_id", ownerID)
	return s.GetBookmark(ctx, ownerID, id)
}

// DeleteBookmark tombstones a bookmark. Tags are detached; satellites
// citing it keep their reference and see a deleted placeholder.
func (s *Service) DeleteBookmark(ctx context.Context, ownerID, id string) error {
	if err := s.database.SoftDeleteBookmark(ctx, ownerID, id, s.clock.Now()); err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	s.logger.Info("bookmark deleted", "bookmark_id", id, "owner_id", ownerID)
	return nil
}

// RecordVisit increments visitCount and stamps lastVisited atomically.
func (s *Service) RecordVisit(ctx context.Context, ownerID, id string) (*VisitStats, error) {
	stats, err := s.database.IncrementVisit(ctx, ownerID, id, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("recording visit: %w", err)
	}
	return stats, nil
}

// ToggleArchive flips isArchived and returns the new value. Two calls
// restore the original state.
func (s *Service) ToggleArchive(ctx context.Context, ownerID, id string) (bool, error) {
	archived, err := s.database.ToggleArchive(ctx, ownerID, id, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("toggling archive: %w", err)
	}
	return archived, nil
}

// ResolveShortURL counts a click on shortURL and returns its target.
func (s *Service) ResolveShortURL(ctx context.Context, shortURL string) (string, error) {
	b, err := s.database.IncrementClicks(ctx, shortURL, s.clock.Now())
	if err != nil {
		return "", fmt.Errorf("resolving short url: %w", err)
	}
	if b == nil {
		return "", notFound("short url", shortURL)
	}
	return b.URL, nil
}

// CreateFolder adds a folder to persona. Names are unique per owner+persona.
func (s *Service) CreateFolder(ctx context.Context, ownerID string, persona Persona, name string) (*Folder, error) {
	v := &validator{}
	v.persona(persona)
	if v.required("name", name) {
		v.maxLen("name", strings.TrimSpace(name), maxFolderNameLen)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	f := &Folder{
		ID:        s.idgen.New(),
		OwnerID:   ownerID,
		Persona:   persona,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.database.InsertFolder(ctx, f); err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}
	return f, nil
}

// EnsureFolder returns the persona's folder called name, creating it if needed.
func (s *Service) EnsureFolder(ctx context.Context, ownerID string, persona Persona, name string) (*Folder, error) {
	f, err := s.database.FindFolderByName(ctx, ownerID, persona, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("finding folder: %w", err)
	}
	if f != nil {
		return f, nil
	}
	return s.CreateFolder(ctx, ownerID, persona, name)
}

// ListFolders returns persona's folders ordered by name.
func (s *Service) ListFolders(ctx context.Context, ownerID string, persona Persona) ([]*Folder, error) {
	folders, err := s.database.ListFolders(ctx, ownerID, persona)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// DeleteFolder removes a folder. Its bookmarks stay, minus the membership.
func (s *Service) DeleteFolder(ctx context.Context, ownerID, id string) error {
	if err := s.database.DeleteFolder(ctx, ownerID, id); err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	return nil
}
