package pkm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CreatePlannerEntry schedules a new entry in persona.
func (s *Service) CreatePlannerEntry(ctx context.Context, ownerID string, persona Persona, in PlannerInput) (*PlannerEntry, error) {
	if err := validatePlanner(persona, in); err != nil {
		return nil, err
	}
	recurrence := in.Recurrence
	if recurrence == "" {
		recurrence = RecurNone
	}

	now := s.clock.Now()
	e := &PlannerEntry{
		ID:              s.idgen.New(),
		OwnerID:         ownerID,
		Persona:         persona,
		Type:            in.Type,
		Title:           strings.TrimSpace(in.Title),
		ScheduledFor:    in.ScheduledFor.UTC(),
		DurationMinutes: in.DurationMinutes,
		Status:          PlannerScheduled,
		Recurrence:      recurrence,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.database.InsertPlannerEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("creating planner entry: %w", err)
	}
	return e, nil
}

// TransitionPlannerEntry moves an entry to next. Completed and cancelled
// entries are final; rescheduling requires newTime.
func (s *Service) TransitionPlannerEntry(ctx context.Context, ownerID, id string, next PlannerStatus, newTime *time.Time) (*PlannerEntry, error) {
	e, err := s.database.GetPlannerEntry(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("finding planner entry: %w", err)
	}
	if e == nil {
		return nil, notFound("planner entry", id)
	}

	v := &validator{}
	if !e.Status.CanTransition(next) {
		v.add("status", "cannot move from %s to %s", e.Status, next)
	}
	if next == PlannerRescheduled && (newTime == nil || newTime.IsZero()) {
		v.add("scheduledFor", "is required when rescheduling")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	e.Status = next
	if next == PlannerRescheduled {
		e.ScheduledFor = newTime.UTC()
	}
	e.UpdatedAt = s.clock.Now()
	if err := s.database.UpdatePlannerEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("updating planner entry: %w", err)
	}
	return e, nil
}

// ListPlannerEntries returns persona's entries scheduled in [from, to).
// A zero bound is open.
func (s *Service) ListPlannerEntries(ctx context.Context, ownerID string, persona Persona, from, to time.Time) ([]*PlannerEntry, error) {
	entries, err := s.database.ListPlannerEntries(ctx, ownerID, persona, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing planner entries: %w", err)
	}
	return entries, nil
}
