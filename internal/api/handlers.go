package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub-io/taskhub/internal/models"
	"github.com/taskhub-io/taskhub/internal/validator"
)

// pathID validates a uuid path parameter. Anything else cannot name a row,
// so it is answered with notFound.
func pathID(w http.ResponseWriter, raw, notFound string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeFail(w, http.StatusNotFound, notFound)
		return "", false
	}
	return id.String(), true
}

// optionalDate parses a nullable YYYY-MM-DD field
func optionalDate(v *validator.Validator, key string, raw *string) *models.Date {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	d, err := models.ParseDate(strings.TrimSpace(*raw))
	v.Check(err == nil, key, "must be a date in YYYY-MM-DD format")
	if err != nil {
		return nil
	}
	return &d
}

// optionalText treats an empty string like an omitted field
func optionalText(raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	return raw
}

type projectInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

// toProject validates every field and builds the full replacement row
func (in projectInput) toProject(id string, now time.Time) (*models.Project, error) {
	v := validator.New()
	name := strings.TrimSpace(in.Name)
	if v.Required("name", name) {
		v.MaxLength("name", name, 255)
	}
	due := optionalDate(v, "due_date", in.DueDate)
	if err := v.Err(); err != nil {
		return nil, err
	}

	return &models.Project{
		ID:          id,
		Name:        name,
		Description: optionalText(in.Description),
		DueDate:     due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type taskInput struct {
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"due_date"`
}

func statusNames() []string {
	names := make([]string, 0, len(models.TaskStatuses()))
	for _, s := range models.TaskStatuses() {
		names = append(names, s.String())
	}
	return names
}

// toTask validates every field and builds the full replacement row. An
// omitted status is pending.
func (in taskInput) toTask(id string, now time.Time) (*models.Task, error) {
	v := validator.New()

	projectID := strings.TrimSpace(in.ProjectID)
	if v.Required("project_id", projectID) {
		parsed, err := uuid.Parse(projectID)
		v.Check(err == nil, "project_id", "is invalid")
		if err == nil {
			projectID = parsed.String()
		}
	}

	title := strings.TrimSpace(in.Title)
	if v.Required("title", title) {
		v.MaxLength("title", title, 255)
	}

	status := models.TaskStatusPending
	if in.Status != nil {
		parsed, err := models.ParseTaskStatus(*in.Status)
		if err != nil {
			v.In("status", *in.Status, statusNames()...)
		}
		status = parsed
	}

	due := optionalDate(v, "due_date", in.DueDate)
	if err := v.Err(); err != nil {
		return nil, err
	}

	return &models.Task{
		ID:          id,
		ProjectID:   projectID,
		Title:       title,
		Description: optionalText(in.Description),
		Status:      status,
		DueDate:     due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
