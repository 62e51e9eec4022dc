package pkm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkm/internal/pkm"
	"pkm/internal/testutil"
)

func TestService_CreateSatellite(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	sat, err := svc.CreateSatellite(ctx, owner, pkm.PersonaEntrepreneur, pkm.SatelliteInput{
		Kind: pkm.KindPartnership, Title: "Acme", Tags: []string{"b2b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "prospect", sat.Status)
	assert.Empty(t, sat.ResourceIDs)
	require.Len(t, sat.Tags, 1)

	t.Run("kind not offered to persona", func(t *testing.T) {
		_, err := svc.CreateSatellite(ctx, owner, pkm.PersonaStudent, pkm.SatelliteInput{Kind: pkm.KindPartnership, Title: "x"})
		assert.Equal(t, []string{"persona"}, violationFields(t, err))
	})

	t.Run("status outside vocabulary", func(t *testing.T) {
		_, err := svc.CreateSatellite(ctx, owner, pkm.PersonaStudent, pkm.SatelliteInput{
			Kind: pkm.KindAssignment, Title: "x", Status: "published",
		})
		assert.Equal(t, []string{"status"}, violationFields(t, err))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.CreateSatellite(ctx, owner, pkm.PersonaStudent, pkm.SatelliteInput{Kind: "quest", Title: "x"})
		assert.Equal(t, []string{"kind"}, violationFields(t, err))
	})

	t.Run("status transitions", func(t *testing.T) {
		got, err := svc.UpdateSatelliteStatus(ctx, owner, sat.ID, "negotiating")
		require.NoError(t, err)
		assert.Equal(t, "negotiating", got.Status)

		_, err = svc.UpdateSatelliteStatus(ctx, owner, sat.ID, "graded")
		assert.ErrorIs(t, err, pkm.ErrValidation)
	})

	t.Run("list by kind", func(t *testing.T) {
		_, err := svc.CreateSatellite(ctx, owner, pkm.PersonaEntrepreneur, pkm.SatelliteInput{Kind: pkm.KindStartupProject, Title: "Rocket"})
		require.NoError(t, err)

		all, err := svc.ListSatellites(ctx, owner, pkm.PersonaEntrepreneur, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		partnerships, err := svc.ListSatellites(ctx, owner, pkm.PersonaEntrepreneur, pkm.KindPartnership)
		require.NoError(t, err)
		require.Len(t, partnerships, 1)
		assert.Equal(t, sat.ID, partnerships[0].ID)

		_, err = svc.ListSatellites(ctx, owner, pkm.PersonaEntrepreneur, "quest")
		assert.ErrorIs(t, err, pkm.ErrValidation)
	})
}

func TestService_ReferencesAcrossPersonas(t *testing.T) {
	ctx := context.Background()
	svc, _ := testutil.NewTestService(t)

	paper := createBookmark(t, svc, pkm.PersonaResearcher, "https://arxiv.org/abs/1")

	project, err := svc.CreateSatellite(ctx, owner, pkm.PersonaResearcher, pkm.SatelliteInput{Kind: pkm.KindResearchProject, Title: "Survey"})
	require.NoError(t, err)
	assignment, err := svc.CreateSatellite(ctx, owner, pkm.PersonaStudent, pkm.SatelliteInput{Kind: pkm.KindAssignment, Title: "Essay"})
	require.NoError(t, err)

	require.NoError(t, svc.AttachResource(ctx, owner, project.ID, pkm.KindResearchProject, paper.ID))
	require.NoError(t, svc.AttachResource(ctx, owner, assignment.ID, pkm.KindAssignment, paper.ID))
	require.NoError(t, svc.AttachResource(ctx, owner, assignment.ID, pkm.KindAssignment, paper.ID), "attaching twice is a no-op")

	before, err := svc.GetBookmark(ctx, owner, paper.ID)
	require.NoError(t, err)
	assert.True(t, paper.UpdatedAt.Equal(before.UpdatedAt), "attaching never touches the bookmark")

	refs, err := svc.ResolveReferences(ctx, owner, paper.ID)
	require.NoError(t, err)
	assert.False(t, refs.Bookmark.Deleted)
	assert.Equal(t, paper.URL, refs.Bookmark.URL)
	require.Len(t, refs.Referrers, 2)
	assert.Equal(t, pkm.KindAssignment, refs.Referrers[0].Kind)
	assert.Equal(t, pkm.PersonaStudent, refs.Referrers[0].Persona)
	assert.Equal(t, pkm.KindResearchProject, refs.Referrers[1].Kind)

	t.Run("wrong kind is not found", func(t *testing.T) {
		err := svc.AttachResource(ctx, owner, project.ID, pkm.KindAssignment, paper.ID)
		assert.ErrorIs(t, err, pkm.ErrNotFound)
	})

	t.Run("delete keeps references", func(t *testing.T) {
		require.NoError(t, svc.DeleteBookmark(ctx, owner, paper.ID))

		refs, err := svc.ResolveReferences(ctx, owner, paper.ID)
		require.NoError(t, err)
		assert.Equal(t, pkm.ResourceRef{ID: paper.ID, Deleted: true}, refs.Bookmark)
		assert.Len(t, refs.Referrers, 2)

		resources, err := svc.SatelliteResources(ctx, owner, assignment.ID)
		require.NoError(t, err)
		assert.Equal(t, []pkm.ResourceRef{{ID: paper.ID, Deleted: true}}, resources)
	})

	t.Run("deleted bookmarks cannot gain references", func(t *testing.T) {
		other, err := svc.CreateSatellite(ctx, owner, pkm.PersonaStudent, pkm.SatelliteInput{Kind: pkm.KindAssignment, Title: "Lab"})
		require.NoError(t, err)
		err = svc.AttachResource(ctx, owner, other.ID, pkm.KindAssignment, paper.ID)
		assert.ErrorIs(t, err, pkm.ErrNotFound)
	})

	t.Run("detach", func(t *testing.T) {
		require.NoError(t, svc.DetachResource(ctx, owner, assignment.ID, pkm.KindAssignment, paper.ID))
		require.NoError(t, svc.DetachResource(ctx, owner, assignment.ID, pkm.KindAssignment, paper.ID), "detaching an absent edge succeeds")

		refs, err := svc.ResolveReferences(ctx, owner, paper.ID)
		require.NoError(t, err)
		assert.Len(t, refs.Referrers, 1)
	})

	t.Run("unknown bookmark", func(t *testing.T) {
		_, err := svc.ResolveReferences(ctx, owner, "nope")
		assert.ErrorIs(t, err, pkm.ErrNotFound)
	})
}
