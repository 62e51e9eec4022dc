package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pkm/internal/pkm"
)

func (a *api) createSatellite(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var in pkm.SatelliteInput
	if !decode(w, r, &in) {
		return
	}
	sat, err := a.svc.CreateSatellite(r.Context(), ownerFrom(r), persona, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sat)
}

func (a *api) listSatellites(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	kind := pkm.SatelliteKind(r.URL.Query().Get("kind"))
	sats, err := a.svc.ListSatellites(r.Context(), ownerFrom(r), persona, kind)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sats)
}

func (a *api) getSatellite(w http.ResponseWriter, r *http.Request) {
	sat, err := a.svc.GetSatellite(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sat)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *api) updateSatelliteStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	sat, err := a.svc.UpdateSatelliteStatus(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sat)
}

func (a *api) satelliteResources(w http.ResponseWriter, r *http.Request) {
	refs, err := a.svc.SatelliteResources(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

// satelliteEdge resolves the satellite first so the kind check inside the
// service always sees the satellite's own kind.
func (a *api) satelliteEdge(w http.ResponseWriter, r *http.Request, fn func(owner, satID string, kind pkm.SatelliteKind, bookmarkID string) error) {
	owner := ownerFrom(r)
	sat, err := a.svc.GetSatellite(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := fn(owner, sat.ID, sat.Kind, chi.URLParam(r, "bookmarkID")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) attachResource(w http.ResponseWriter, r *http.Request) {
	a.satelliteEdge(w, r, func(owner, satID string, kind pkm.SatelliteKind, bookmarkID string) error {
		return a.svc.AttachResource(r.Context(), owner, satID, kind, bookmarkID)
	})
}

func (a *api) detachResource(w http.ResponseWriter, r *http.Request) {
	a.satelliteEdge(w, r, func(owner, satID string, kind pkm.SatelliteKind, bookmarkID string) error {
		return a.svc.DetachResource(r.Context(), owner, satID, kind, bookmarkID)
	})
}
