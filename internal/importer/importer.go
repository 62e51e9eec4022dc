// Package importer loads bookmark exports into a persona.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pkm/internal/pkm"
)

// Entry is one bookmark read from an export file. Folder is the
// slash-joined folder path, empty for the root.
type Entry struct {
	URL         string
	Title       string
	Description string
	Category    string
	Folder      string
	Tags        []string
	AddedAt     *time.Time
}

// Result counts what Import did with the entries it was given.
type Result struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ParseFile reads path as Netscape HTML or YAML depending on its extension.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ParseHTML(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("unsupported import format %q (want .html or .yaml)", filepath.Ext(path))
	}
}

// Importer creates bookmarks for parsed entries through the service, so
// every entry goes through the same validation as an API call.
type Importer struct {
	svc    *pkm.Service
	logger pkm.Logger
}

func New(svc *pkm.Service, logger pkm.Logger) *Importer {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	return &Importer{svc: svc, logger: logger}
}

// Import adds entries to persona. Folders are created or reused by name.
// Entries whose URL already exists are skipped and invalid entries are
// counted as failed; any other error stops the import.
func (im *Importer) Import(ctx context.Context, ownerID string, persona pkm.Persona, entries []Entry) (*Result, error) {
	if _, err := pkm.ParsePersona(string(persona)); err != nil {
		return nil, err
	}

	res := &Result{}
	folders := map[string]string{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		in := pkm.BookmarkInput{
			URL:         e.URL,
			Title:       e.Title,
			Description: e.Description,
			Category:    e.Category,
			Tags:        e.Tags,
		}
		if in.Title == "" {
			in.Title = e.URL
		}

		if e.Folder != "" {
			id, ok := folders[e.Folder]
			if !ok {
				f, err := im.svc.EnsureFolder(ctx, ownerID, persona, e.Folder)
				if errors.Is(err, pkm.ErrValidation) {
					im.logger.Warn("import folder rejected", "folder", e.Folder, "error", err)
					res.Failed++
					continue
				}
				if err != nil {
					return res, fmt.Errorf("ensuring folder %q: %w", e.Folder, err)
				}
				id = f.ID
				folders[e.Folder] = id
			}
			in.FolderIDs = []string{id}
		}

		_, err := im.svc.CreateBookmark(ctx, ownerID, persona, in)
		switch {
		case err == nil:
			res.Added++
		case errors.Is(err, pkm.ErrDuplicate):
			res.Skipped++
		case errors.Is(err, pkm.ErrValidation):
			im.logger.Warn("import entry rejected", "url", e.URL, "error", err)
			res.Failed++
		default:
			return res, fmt.Errorf("importing %s: %w", e.URL, err)
		}
	}

	im.logger.Info("import finished", "persona", persona,
		"added", res.Added, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}
