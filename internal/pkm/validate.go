package pkm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
	maxCategoryLen    = 50
	maxFolderNameLen  = 100
	maxTagNameLen     = 50
	maxPlannerMinutes = 24 * 60
)

var (
	urlPattern      = regexp.MustCompile(`^https?://`)
	shortURLPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)
)

// validator accumulates violations so callers see every problem at once.
type validator struct {
	violations []Violation
}

func (v *validator) add(field, format string, args ...any) {
	v.violations = append(v.violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
		return false
	}
	return true
}

func (v *validator) maxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.add(field, "must be at most %d characters", n)
	}
}

func (v *validator) url(field, value string) {
	if v.required(field, value) && !urlPattern.MatchString(strings.ToLower(strings.TrimSpace(value))) {
		v.add(field, "must start with http:// or https://")
	}
}

func (v *validator) persona(p Persona) {
	if !p.Valid() {
		v.add("persona", "unknown persona %q", p)
	}
}

func (v *validator) err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: v.violations}
}

func (v *validator) title(value string) {
	if v.required("title", value) {
		v.maxLen("title", value, maxTitleLen)
	}
}

func (v *validator) shortURL(value string) {
	if value != "" && !shortURLPattern.MatchString(value) {
		v.add("shortUrl", "must be 3-64 letters, digits, '-' or '_'")
	}
}

func (v *validator) priority(p Priority) {
	if !p.Valid() {
		v.add("priority", "must be one of low, medium, high")
	}
}

func (v *validator) tags(names []string) {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			v.add("tags", "tag names must not be empty")
			continue
		}
		v.maxLen("tags", strings.TrimSpace(name), maxTagNameLen)
	}
}
