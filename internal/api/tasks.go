package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhub-io/taskhub/internal/models"
	"github.com/taskhub-io/taskhub/internal/store"
	"github.com/taskhub-io/taskhub/internal/validator"
)

const taskNotFound = "Task not found"

// taskFilter reads ?project_id= and ?status= from the query string
func taskFilter(r *http.Request) (store.TaskFilter, error) {
	var filter store.TaskFilter
	q := r.URL.Query()
	v := validator.New()

	if raw := q.Get("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		v.Check(err == nil, "project_id", "is invalid")
		if err == nil {
			filter.ProjectID = id.String()
		}
	}
	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseTaskStatus(raw)
		if err != nil {
			v.In("status", raw, statusNames()...)
		} else {
			filter.Status = &status
		}
	}
	return filter, v.Err()
}

func (api *Api) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	filter, err := taskFilter(r)
	if err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}
	filter.WithProject = true

	tasks, err := api.store.ListTasks(r.Context(), user.ID, filter)
	if err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}
	writeList(w, tasks)
}

func (api *Api) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in taskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := in.toTask(uuid.NewString(), api.now())
	if err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}

	if err := api.store.CreateTask(r.Context(), user.ID, task); err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}
	writeData(w, http.StatusCreated, "Task created successfully", task)
}

func (api *Api) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"), taskNotFound)
	if !ok {
		return
	}

	task, err := api.store.GetTask(r.Context(), user.ID, id)
	if err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}
	writeData(w, http.StatusOK, "", task)
}

// UpdateTaskHandler replaces the whole task; an omitted status resets to pending
func (api *Api) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"), taskNotFound)
	if !ok {
		return
	}

	var in taskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	task, err := in.toTask(id, api.now())
	if err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}

	if err := api.store.UpdateTask(r.Context(), user.ID, task); err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}
	writeData(w, http.StatusOK, "Task updated successfully", task)
}

func (api *Api) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"), taskNotFound)
	if !ok {
		return
	}

	if err := api.store.DeleteTask(r.Context(), user.ID, id); err != nil {
		handleError(w, r, err, taskNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
