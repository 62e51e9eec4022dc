package pkm

import "time"

// PlannerType classifies a planner entry.
type PlannerType string

const (
	PlannerStudySession    PlannerType = "study_session"
	PlannerContentCreation PlannerType = "content_creation"
	PlannerMeeting         PlannerType = "meeting"
	PlannerDeadline        PlannerType = "deadline"
	PlannerTask            PlannerType = "task"
	PlannerEvent           PlannerType = "event"
)

func (t PlannerType) Valid() bool {
	switch t {
	case PlannerStudySession, PlannerContentCreation, PlannerMeeting, PlannerDeadline, PlannerTask, PlannerEvent:
		return true
	}
	return false
}

// PlannerStatus is the lifecycle state of a planner entry.
type PlannerStatus string

const (
	PlannerScheduled   PlannerStatus = "scheduled"
	PlannerCompleted   PlannerStatus = "completed"
	PlannerCancelled   PlannerStatus = "cancelled"
	PlannerRescheduled PlannerStatus = "rescheduled"
)

// Terminal reports whether no further transition is allowed.
func (s PlannerStatus) Terminal() bool {
	return s == PlannerCompleted || s == PlannerCancelled
}

// CanTransition reports whether an entry in s may move to next.
func (s PlannerStatus) CanTransition(next PlannerStatus) bool {
	if s != PlannerScheduled && s != PlannerRescheduled {
		return false
	}
	switch next {
	case PlannerCompleted, PlannerCancelled, PlannerRescheduled:
		return true
	}
	return false
}

// Recurrence is stored as a rule. Expanding it into instances is left to
// callers.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// PlannerEntry is a persona-scoped scheduling record.
type PlannerEntry struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"ownerId"`
	Persona         Persona       `json:"persona"`
	Type            PlannerType   `json:"type"`
	Title           string        `json:"title"`
	ScheduledFor    time.Time     `json:"scheduledFor"`
	DurationMinutes int           `json:"durationMinutes"`
	Status          PlannerStatus `json:"status"`
	Recurrence      Recurrence    `json:"recurrence"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// PlannerInput carries the attributes accepted on creation.
type PlannerInput struct {
	Type            PlannerType `json:"type"`
	Title           string      `json:"title"`
	ScheduledFor    time.Time   `json:"scheduledFor"`
	DurationMinutes int         `json:"durationMinutes"`
	Recurrence      Recurrence  `json:"recurrence"`
}

func validatePlanner(persona Persona, in PlannerInput) error {
	v := &validator{}
	v.persona(persona)
	v.title(in.Title)
	if !in.Type.Valid() {
		v.add("type", "unknown planner type %q", in.Type)
	}
	if in.ScheduledFor.IsZero() {
		v.add("scheduledFor", "is required")
	}
	if in.DurationMinutes <= 0 || in.DurationMinutes > maxPlannerMinutes {
		v.add("durationMinutes", "must be between 1 and %d", maxPlannerMinutes)
	}
	if in.Recurrence != "" && !in.Recurrence.Valid() {
		v.add("recurrence", "must be one of none, daily, weekly, monthly")
	}
	return v.err()
}
