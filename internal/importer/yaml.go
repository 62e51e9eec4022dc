package importer

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlFile is the YAML import format:
//
//	folders:
//	  - name: Reading
//	    bookmarks:
//	      - url: https://go.dev/blog
//	        title: The Go Blog
//	        tags: [go]
//	bookmarks:
//	  - url: https://example.com
type yamlFile struct {
	Folders   []yamlFolder   `yaml:"folders"`
	Bookmarks []yamlBookmark `yaml:"bookmarks"`
}

type yamlFolder struct {
	Name      string         `yaml:"name"`
	Bookmarks []yamlBookmark `yaml:"bookmarks"`
}

type yamlBookmark struct {
	URL         string   `yaml:"url"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
}

// ParseYAML reads the YAML import format. Root bookmarks come first, then
// each folder's bookmarks in file order.
func ParseYAML(r io.Reader) ([]Entry, error) {
	var file yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing bookmark yaml: %w", err)
	}

	var entries []Entry
	for _, b := range file.Bookmarks {
		entries = append(entries, b.entry(""))
	}
	for _, f := range file.Folders {
		name := strings.TrimSpace(f.Name)
		for _, b := range f.Bookmarks {
			entries = append(entries, b.entry(name))
		}
	}
	return entries, nil
}

func (b yamlBookmark) entry(folder string) Entry {
	return Entry{
		URL:         strings.TrimSpace(b.URL),
		Title:       strings.TrimSpace(b.Title),
		Description: b.Description,
		Category:    b.Category,
		Folder:      folder,
		Tags:        b.Tags,
	}
}
