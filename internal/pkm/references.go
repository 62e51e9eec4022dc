package pkm

import (
	"context"
	"fmt"
	"strings"
)

// CreateSatellite stores a persona-specific entity. Kind, persona and status
// are checked against the kind's own vocabulary.
func (s *Service) CreateSatellite(ctx context.Context, ownerID string, persona Persona, in SatelliteInput) (*Satellite, error) {
	if err := validateSatellite(persona, in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = in.Kind.InitialStatus()
	}

	now := s.clock.Now()
	sat := &Satellite{
		ID:          s.idgen.New(),
		OwnerID:     ownerID,
		Persona:     persona,
		Kind:        in.Kind,
		Title:       strings.TrimSpace(in.Title),
		Status:      status,
		DueAt:       in.DueAt,
		ResourceIDs: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.database.InsertSatellite(ctx, sat, dedupe(in.Tags)); err != nil {
		return nil, fmt.Errorf("creating %s: %w", in.Kind, err)
	}

	s.logger.Info("satellite created", "satellite_id", sat.ID, "kind", sat.Kind, "owner_id", ownerID, "persona", persona)
	return sat, nil
}

// GetSatellite returns a satellite of ownerID or *NotFoundError.
func (s *Service) GetSatellite(ctx context.Context, ownerID, id string) (*Satellite, error) {
	sat, err := s.database.GetSatellite(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("finding satellite: %w", err)
	}
	if sat == nil {
		return nil, notFound("satellite", id)
	}
	return sat, nil
}

// ListSatellites returns persona's satellites, optionally of a single kind.
func (s *Service) ListSatellites(ctx context.Context, ownerID string, persona Persona, kind SatelliteKind) ([]*Satellite, error) {
	if kind != "" && !kind.Valid() {
		return nil, &ValidationError{Violations: []Violation{{Field: "kind", Message: fmt.Sprintf("unknown satellite kind %q", kind)}}}
	}
	sats, err := s.database.ListSatellites(ctx, ownerID, persona, kind)
	if err != nil {
		return nil, fmt.Errorf("listing satellites: %w", err)
	}
	return sats, nil
}

// UpdateSatelliteStatus moves a satellite to another status of its kind.
func (s *Service) UpdateSatelliteStatus(ctx context.Context, ownerID, id, status string) (*Satellite, error) {
	sat, err := s.GetSatellite(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := validateSatelliteStatus(sat.Kind, status); err != nil {
		return nil, err
	}
	if err := s.database.UpdateSatelliteStatus(ctx, ownerID, id, status, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("updating satellite status: %w", err)
	}
	return s.GetSatellite(ctx, ownerID, id)
}

// satelliteOfKind loads a satellite and insists it is of kind.
func (s *Service) satelliteOfKind(ctx context.Context, ownerID, satelliteID string, kind SatelliteKind) (*Satellite, error) {
	sat, err := s.GetSatellite(ctx, ownerID, satelliteID)
	if err != nil {
		return nil, err
	}
	if sat.Kind != kind {
		return nil, notFound(string(kind), satelliteID)
	}
	return sat, nil
}

// AttachResource adds a live bookmark to a satellite's resources. The
// bookmark row itself is not touched. Attaching twice is a no-op; deleted
// bookmarks cannot gain new references.
func (s *Service) AttachResource(ctx context.Context, ownerID, satelliteID string, kind SatelliteKind, bookmarkID string) error {
	if _, err := s.satelliteOfKind(ctx, ownerID, satelliteID, kind); err != nil {
		return err
	}
	b, err := s.database.GetBookmark(ctx, ownerID, bookmarkID)
	if err != nil {
		return fmt.Errorf("finding bookmark: %w", err)
	}
	if b == nil {
		return notFound("bookmark", bookmarkID)
	}
	if err := s.database.AttachResource(ctx, satelliteID, bookmarkID, s.clock.Now()); err != nil {
		return fmt.Errorf("attaching resource: %w", err)
	}
	return nil
}

// DetachResource removes a bookmark from a satellite's resources. Removing
// an absent reference succeeds.
func (s *Service) DetachResource(ctx context.Context, ownerID, satelliteID string, kind SatelliteKind, bookmarkID string) error {
	if _, err := s.satelliteOfKind(ctx, ownerID, satelliteID, kind); err != nil {
		return err
	}
	if err := s.database.DetachResource(ctx, satelliteID, bookmarkID); err != nil {
		return fmt.Errorf("detaching resource: %w", err)
	}
	return nil
}

// SatelliteResources resolves a satellite's resources. Deleted bookmarks
// come back as {id, deleted: true}.
func (s *Service) SatelliteResources(ctx context.Context, ownerID, satelliteID string) ([]ResourceRef, error) {
	if _, err := s.GetSatellite(ctx, ownerID, satelliteID); err != nil {
		return nil, err
	}
	refs, err := s.database.SatelliteResources(ctx, satelliteID)
	if err != nil {
		return nil, fmt.Errorf("resolving resources: %w", err)
	}
	for i := range refs {
		if refs[i].Deleted {
			refs[i] = ResourceRef{ID: refs[i].ID, Deleted: true}
		}
	}
	return refs, nil
}

// ResolveReferences lists every satellite, of any kind, citing bookmarkID.
// It works on tombstones too and never blocks a delete.
func (s *Service) ResolveReferences(ctx context.Context, ownerID, bookmarkID string) (*References, error) {
	b, err := s.database.FindBookmarkIncludingDeleted(ctx, ownerID, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("finding bookmark: %w", err)
	}
	if b == nil {
		return nil, notFound("bookmark", bookmarkID)
	}

	referrers, err := s.database.FindReferrers(ctx, ownerID, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("finding referrers: %w", err)
	}
	if referrers == nil {
		referrers = []Referrer{}
	}

	ref := ResourceRef{ID: b.ID, Deleted: true}
	if !b.Deleted() {
		ref = ResourceRef{ID: b.ID, Title: b.Title, URL: b.URL}
	}
	return &References{Bookmark: ref, Referrers: referrers}, nil
}
