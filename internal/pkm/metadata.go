package pkm

import (
	"net"
	"net/url"
	"strings"
	"time"
)

// Metadata describes the page behind a bookmark. Domain is derived from the
// URL whenever a bookmark is read and never persisted.
type Metadata struct {
	Domain        string     `json:"domain"`
	Image         string     `json:"image,omitempty"`
	Author        string     `json:"author,omitempty"`
	PublishedDate *time.Time `json:"publishedDate,omitempty"`
	ReadingTime   int        `json:"readingTime,omitempty"`
	ContentType   string     `json:"contentType,omitempty"`
	Language      string     `json:"language,omitempty"`
}

// Content types guessed from a URL.
const (
	ContentArticle    = "article"
	ContentVideo      = "video"
	ContentPDF        = "pdf"
	ContentRepository = "repository"
	ContentPaper      = "paper"
)

var contentHosts = map[string]string{
	"youtube.com":        ContentVideo,
	"youtu.be":           ContentVideo,
	"vimeo.com":          ContentVideo,
	"github.com":         ContentRepository,
	"gitlab.com":         ContentRepository,
	"bitbucket.org":      ContentRepository,
	"arxiv.org":          ContentPaper,
	"doi.org":            ContentPaper,
	"scholar.google.com": ContentPaper,
}

// NormalizeURL trims the URL, lowercases scheme and host, drops default
// ports and a bare "/" path. Unparseable input is returned trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	u.Host = host
	if u.Path == "/" && u.RawQuery == "" && u.Fragment == "" {
		u.Path = ""
	}
	return u.String()
}

// DomainOf returns the host of rawURL without a leading "www.".
// Anything that does not parse to an http(s) URL with a host yields "".
func DomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// GuessContentType infers a coarse content type from the URL shape.
func GuessContentType(rawURL string) string {
	domain := DomainOf(rawURL)
	if domain == "" {
		return ""
	}
	if kind, ok := contentHosts[domain]; ok {
		return kind
	}
	for host, kind := range contentHosts {
		if strings.HasSuffix(domain, "."+host) {
			return kind
		}
	}
	if u, err := url.Parse(rawURL); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return ContentPDF
	}
	return ContentArticle
}

// deriveMetadata fills the fields that can be inferred from the URL alone.
// Caller supplied values win.
func deriveMetadata(rawURL string, m Metadata) Metadata {
	if m.ContentType == "" {
		m.ContentType = GuessContentType(rawURL)
	}
	m.Domain = DomainOf(rawURL)
	return m
}
