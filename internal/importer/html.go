package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ParseHTML reads a Netscape bookmark file as exported by browsers.
// Nested folders are flattened into a slash-joined path; the Firefox TAGS
// attribute becomes tags and a <DD> after a link becomes its description.
func ParseHTML(r io.Reader) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing bookmark html: %w", err)
	}

	var (
		entries []Entry
		stack   []string
		pending string
		last    *Entry
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h3":
				pending = textContent(n)
				last = nil
				return

			case "a":
				href := strings.TrimSpace(attr(n, "href"))
				if href == "" {
					return
				}
				e := Entry{
					URL:    href,
					Title:  textContent(n),
					Folder: strings.Join(stack, "/"),
					Tags:   splitTags(attr(n, "tags")),
				}
				if ts, err := strconv.ParseInt(attr(n, "add_date"), 10, 64); err == nil && ts > 0 {
					added := time.Unix(ts, 0).UTC()
					e.AddedAt = &added
				}
				entries = append(entries, e)
				last = &entries[len(entries)-1]
				return

			case "dd":
				if last != nil {
					last.Description = ownText(n)
					last = nil
				}

			case "dl":
				pushed := false
				if pending != "" {
					stack = append(stack, pending)
					pending = ""
					pushed = true
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				if pushed {
					stack = stack[:len(stack)-1]
				}
				last = nil
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return entries, nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(b.String())
}

// ownText returns only the direct text children of n. The HTML parser
// nests a following <DL> inside an unclosed <DD>.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// attr looks up an attribute. The parser lowercases attribute keys.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
