package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskhub-io/taskhub/internal/models"
	"github.com/taskhub-io/taskhub/internal/storage"
	"github.com/taskhub-io/taskhub/internal/store"
)

const defaultExportTTL = 15 * time.Minute

// projectSnapshot is the document written to the bucket
type projectSnapshot struct {
	Project    *models.Project `json:"project"`
	Tasks      []models.Task   `json:"tasks"`
	ExportedAt time.Time       `json:"exported_at"`
}

type exportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportProjectHandler uploads a snapshot of one project and its tasks and
// answers with a presigned download link
func (api *Api) ExportProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"), projectNotFound)
	if !ok {
		return
	}

	if api.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Success: false,
			Status:  statusError,
			Message: "Project export is not configured",
		})
		return
	}

	project, err := api.store.GetProject(r.Context(), user.ID, id)
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}
	tasks, err := api.store.ListTasks(r.Context(), user.ID, store.TaskFilter{ProjectID: project.ID})
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}

	now := api.now()
	body, err := json.Marshal(projectSnapshot{Project: project, Tasks: tasks, ExportedAt: now})
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}

	key := storage.ExportKey(user.ID, project.ID, now)
	uploaded, err := api.exporter.Upload(r.Context(), key, body, "application/json")
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}

	ttl := api.Config.Export.URLTTL
	if ttl <= 0 {
		ttl = defaultExportTTL
	}
	url, err := api.exporter.PresignGet(r.Context(), key, ttl)
	if err != nil {
		handleError(w, r, err, projectNotFound)
		return
	}

	log.Printf("[EXPORT] Project %s exported to %s (%d bytes)", project.ID, key, uploaded.Size)
	writeData(w, http.StatusCreated, "Project exported successfully", exportResult{
		Key:       key,
		URL:       url,
		Size:      uploaded.Size,
		Checksum:  uploaded.Checksum,
		ExpiresAt: now.Add(ttl),
	})
}
