package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type folderRequest struct {
	Name string `json:"name"`
}

func (a *api) createFolder(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req folderRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := a.svc.CreateFolder(r.Context(), ownerFrom(r), persona, req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (a *api) listFolders(w http.ResponseWriter, r *http.Request) {
	persona, err := personaFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	folders, err := a.svc.ListFolders(r.Context(), ownerFrom(r), persona)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (a *api) deleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteFolder(r.Context(), ownerFrom(r), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
