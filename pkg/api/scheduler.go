package api

import (
	"encoding/json"
	"net/http"

	"github.com/sritchie73/bad-boyz-cluster/pkg/scheduler"
)

type putSchedulerRequest struct {
	Scheduler string `json:"scheduler"`
}

func (h *handlers) putScheduler(w http.ResponseWriter, r *http.Request) {
	var req putSchedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.grid.SetSchedulerName(req.Scheduler); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) getLog(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		writeJSON(w, http.StatusOK, []scheduler.LogEntry{})
		return
	}
	writeJSON(w, http.StatusOK, h.sched.Log())
}
