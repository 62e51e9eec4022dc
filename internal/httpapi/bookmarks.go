package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pkm/internal/pkm"
)

func (a *api) createBookmark(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var in pkm.BookmarkInput
	if !decode(w, r, &in) {
		return
	}
	b, err := a.svc.CreateBookmark(r.Context(), ownerFrom(r), persona, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// bookmarkQuery reads listing filters from the query string. tag may repeat.
func bookmarkQuery(r *http.Request) (pkm.BookmarkQuery, error) {
	qs := r.URL.Query()
	q := pkm.BookmarkQuery{
		FolderID: qs.Get("folderId"),
		Tags:     qs["tag"],
		Search:   qs.Get("q"),
		Sort:     pkm.SortField(qs.Get("sort")),
		Order:    pkm.SortOrder(qs.Get("order")),
	}
	if raw := qs.Get("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			return q, &pkm.ValidationError{Violations: []pkm.Violation{{Field: "archived", Message: "must be true or false"}}}
		}
		q.Archived = &archived
	}
	var err error
	if q.Page, err = queryInt(r, "page", 0); err != nil {
		return q, err
	}
	if q.PageSize, err = queryInt(r, "pageSize", 0); err != nil {
		return q, err
	}
	return q, nil
}

func (a *api) listBookmarks(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	q, err := bookmarkQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	page, err := a.svc.ListBookmarks(r.Context(), ownerFrom(r), persona, q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *api) getBookmark(w http.ResponseWriter, r *http.Request) {
	b, err := a.svc.GetBookmark(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *api) updateBookmark(w http.ResponseWriter, r *http.Request) {
	var patch pkm.BookmarkPatch
	if !decode(w, r, &patch) {
		return
	}
	b, err := a.svc.UpdateBookmark(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *api) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteBookmark(r.Context(), ownerFrom(r), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) recordVisit(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.RecordVisit(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *api) toggleArchive(w http.ResponseWriter, r *http.Request) {
	archived, err := a.svc.ToggleArchive(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isArchived": archived})
}

func (a *api) references(w http.ResponseWriter, r *http.Request) {
	refs, err := a.svc.ResolveReferences(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

func (a *api) summary(w http.ResponseWriter, r *http.Request) {
	length := pkm.LengthHint(r.URL.Query().Get("length"))
	res, err := a.svc.DraftBookmarkSummary(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), length)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type bulkRequest struct {
	Action pkm.BulkAction    `json:"action"`
	IDs    []string          `json:"ids"`
	Params map[string]string `json:"params"`
}

func (a *api) bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decode(w, r, &req) {
		return
	}
	results, err := a.svc.ApplyBulk(r.Context(), ownerFrom(r), req.Action, req.IDs, req.Params)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]pkm.BulkResult{"results": results})
}

func (a *api) redirectShortURL(w http.ResponseWriter, r *http.Request) {
	target, err := a.svc.ResolveShortURL(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
