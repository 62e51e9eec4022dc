package pkm

import (
	"fmt"
	"strings"
	"time"
)

// SatelliteKind names a persona-specific entity type that can cite bookmarks.
type SatelliteKind string

const (
	KindAssignment       SatelliteKind = "assignment"
	KindContentProject   SatelliteKind = "content_project"
	KindProject          SatelliteKind = "project"
	KindSkillDevelopment SatelliteKind = "skill_development"
	KindStartupProject   SatelliteKind = "startup_project"
	KindPartnership      SatelliteKind = "partnership"
	KindResearchProject  SatelliteKind = "research_project"
)

// kindRule is the closed vocabulary of one kind. The first status is
// the initial one.
type kindRule struct {
	personas []Persona
	statuses []string
}

var kindRules = map[SatelliteKind]kindRule{
	KindAssignment: {
		personas: []Persona{PersonaStudent},
		statuses: []string{"not_started", "in_progress", "submitted", "graded"},
	},
	KindContentProject: {
		personas: []Persona{PersonaCreator},
		statuses: []string{"idea", "drafting", "editing", "published"},
	},
	KindProject: {
		personas: []Persona{PersonaProfessional},
		statuses: []string{"planning", "active", "on_hold", "completed"},
	},
	KindSkillDevelopment: {
		personas: []Persona{PersonaProfessional},
		statuses: []string{"planned", "learning", "practicing", "mastered"},
	},
	KindStartupProject: {
		personas: []Persona{PersonaEntrepreneur},
		statuses: []string{"ideation", "validation", "mvp", "growth", "scaling"},
	},
	KindPartnership: {
		personas: []Persona{PersonaEntrepreneur},
		statuses: []string{"prospect", "negotiating", "active", "ended"},
	},
	KindResearchProject: {
		personas: []Persona{PersonaResearcher},
		statuses: []string{"proposal", "data_collection", "analysis", "writing", "published"},
	},
}

// Valid reports whether k is a known satellite kind.
func (k SatelliteKind) Valid() bool {
	_, ok := kindRules[k]
	return ok
}

// Statuses returns the status vocabulary of k in lifecycle order.
func (k SatelliteKind) Statuses() []string {
	rule := kindRules[k]
	out := make([]string, len(rule.statuses))
	copy(out, rule.statuses)
	return out
}

// InitialStatus is the status a new satellite of kind k starts in.
func (k SatelliteKind) InitialStatus() string {
	rule, ok := kindRules[k]
	if !ok || len(rule.statuses) == 0 {
		return ""
	}
	return rule.statuses[0]
}

// AllowsPersona reports whether satellites of kind k may live in persona p.
func (k SatelliteKind) AllowsPersona(p Persona) bool {
	for _, allowed := range kindRules[k].personas {
		if allowed == p {
			return true
		}
	}
	return false
}

// AllowsStatus reports whether status belongs to k's vocabulary.
func (k SatelliteKind) AllowsStatus(status string) bool {
	for _, s := range kindRules[k].statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Satellite is a persona-specific entity (assignment, partnership, ...)
// that cites bookmarks through a forward-only resource set.
type Satellite struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"ownerId"`
	Persona     Persona       `json:"persona"`
	Kind        SatelliteKind `json:"kind"`
	Title       string        `json:"title"`
	Status      string        `json:"status"`
	DueAt       *time.Time    `json:"dueAt,omitempty"`
	Tags        []TagRef      `json:"tags"`
	ResourceIDs []string      `json:"resources"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// SatelliteInput carries the attributes accepted on satellite creation.
type SatelliteInput struct {
	Kind   SatelliteKind `json:"kind"`
	Title  string        `json:"title"`
	Status string        `json:"status"`
	DueAt  *time.Time    `json:"dueAt"`
	Tags   []string      `json:"tags"`
}

// ResourceRef is how a satellite sees one of its bookmarks. Deleted
// bookmarks resolve to {id, deleted: true}.
type ResourceRef struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Referrer is a satellite citing a bookmark.
type Referrer struct {
	ID      string        `json:"id"`
	Kind    SatelliteKind `json:"kind"`
	Persona Persona       `json:"persona"`
	Title   string        `json:"title"`
}

// References answers "what links here" for a bookmark.
type References struct {
	Bookmark  ResourceRef `json:"bookmark"`
	Referrers []Referrer  `json:"referrers"`
}

func validateSatellite(persona Persona, in SatelliteInput) error {
	v := &validator{}
	v.persona(persona)
	v.title(in.Title)
	v.tags(in.Tags)
	if !in.Kind.Valid() {
		v.add("kind", "unknown satellite kind %q", in.Kind)
		return v.err()
	}
	if persona.Valid() && !in.Kind.AllowsPersona(persona) {
		v.add("persona", "%s entities are not available to the %s persona", in.Kind, persona)
	}
	if in.Status != "" && !in.Kind.AllowsStatus(in.Status) {
		v.add("status", "must be one of %s", strings.Join(in.Kind.Statuses(), ", "))
	}
	return v.err()
}

func validateSatelliteStatus(kind SatelliteKind, status string) error {
	if kind.AllowsStatus(status) {
		return nil
	}
	return &ValidationError{Violations: []Violation{{
		Field:   "status",
		Message: fmt.Sprintf("must be one of %s", strings.Join(kind.Statuses(), ", ")),
	}}}
}
