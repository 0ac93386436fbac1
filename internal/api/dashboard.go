package api

import (
	"net/http"
)

type dashboardStats struct {
	Projects      int            `json:"projects"`
	Tasks         int            `json:"tasks"`
	TasksByStatus map[string]int `json:"tasks_by_status"`
}

func (api *Api) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	projects, err := api.store.CountProjects(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err, "")
		return
	}
	tasks, byStatus, err := api.store.CountTasks(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err, "")
		return
	}

	stats := dashboardStats{
		Projects:      projects,
		Tasks:         tasks,
		TasksByStatus: make(map[string]int, len(byStatus)),
	}
	for status, n := range byStatus {
		stats.TasksByStatus[status.String()] = n
	}
	writeData(w, http.StatusOK, "", stats)
}
