// Package textgen implements pkm.TextGenerator: a Gemini-backed generator,
// a deterministic offline generator that needs no network, and decorators
// for fallback and caching.
package textgen

import (
	"errors"
	"strings"
)

const (
	SourceOffline = "offline"
	SourceGenAI   = "genai"
)

var (
	ErrNoAPIKey     = errors.New("text generation API key not set")
	ErrEmptyContent = errors.New("text generation returned no content")
)

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// subjectOf returns the request subject, or the first line of the prompt
// cut to a title-sized length.
func subjectOf(subject, prompt string) string {
	if s := strings.TrimSpace(subject); s != "" {
		return s
	}
	line := strings.TrimSpace(prompt)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	const maxSubject = 60
	if r := []rune(line); len(r) > maxSubject {
		line = strings.TrimSpace(string(r[:maxSubject])) + "..."
	}
	return line
}

// sentences splits text on sentence-ending punctuation followed by space.
func sentences(text string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(strings.Join(strings.Fields(text), " "))
	for i, r := range runes {
		b.WriteRune(r)
		end := r == '.' || r == '!' || r == '?'
		if end && (i+1 == len(runes) || runes[i+1] == ' ') {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
