package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *api) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.svc.ListTags(r.Context(), ownerFrom(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (a *api) searchTags(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	tags, err := a.svc.SearchTags(r.Context(), ownerFrom(r), r.URL.Query().Get("prefix"), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (a *api) suggestTags(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	tags, err := a.svc.SuggestTags(r.Context(), ownerFrom(r), r.URL.Query().Get("q"), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (a *api) contentByTag(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", 0)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	content, err := a.svc.GetContentByTag(r.Context(), ownerFrom(r), chi.URLParam(r, "name"), page, pageSize)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (a *api) recountTags(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.RecountTagUsage(r.Context(), ownerFrom(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"corrected": n})
}
