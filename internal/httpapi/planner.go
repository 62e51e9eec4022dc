package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pkm/internal/pkm"
)

func (a *api) createPlannerEntry(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var in pkm.PlannerInput
	if !decode(w, r, &in) {
		return
	}
	e, err := a.svc.CreatePlannerEntry(r.Context(), ownerFrom(r), persona, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &pkm.ValidationError{Violations: []pkm.Violation{{Field: name, Message: "must be an RFC 3339 timestamp"}}}
	}
	return t.UTC(), nil
}

func (a *api) listPlannerEntries(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	entries, err := a.svc.ListPlannerEntries(r.Context(), ownerFrom(r), persona, from, to)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type transitionRequest struct {
	Status       pkm.PlannerStatus `json:"status"`
	ScheduledFor *time.Time        `json:"scheduledFor"`
}

func (a *api) transitionPlannerEntry(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := a.svc.TransitionPlannerEntry(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), req.Status, req.ScheduledFor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
