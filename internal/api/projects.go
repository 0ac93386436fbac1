package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const projectNotFound = "Project not found"

func (api *Api) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	projects, err := api.store.ListProjects(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}
	writeList(w, projects)
}

func (api *Api) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in projectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	project, err := in.toProject(uuid.NewString(), api.now())
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}

	if err := api.store.CreateProject(r.Context(), user.ID, project); err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}
	writeData(w, http.StatusCreated, "Project created successfully", project)
}

func (api *Api) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"), projectNotFound)
	if !ok {
		return
	}

	project, err := api.store.GetProject(r.Context(), user.ID, id)
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}
	writeData(w, http.StatusOK, "", project)
}

// UpdateProjectHandler replaces the whole project; omitted optional fields are cleared
func (api *Api) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"), projectNotFound)
	if !ok {
		return
	}

	var in projectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	project, err := in.toProject(id, api.now())
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}

	if err := api.store.UpdateProject(r.Context(), user.ID, project); err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}
	writeData(w, http.StatusOK, "Project updated successfully", project)
}

// DeleteProjectHandler removes the project together with its tasks
func (api *Api) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"), projectNotFound)
	if !ok {
		return
	}

	if err := api.store.DeleteProject(r.Context(), user.ID, id); err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
