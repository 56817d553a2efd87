package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
)

type createJobRequest struct {
	Name     string `json:"name"`
	Flags    string `json:"flags"`
	WallTime string `json:"wall_time"`
	Deadline string `json:"deadline"`
	Budget   int    `json:"budget"`
	JobType  string `json:"job_type"`
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.grid.ListJobs())
}

func (h *handlers) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "malformed request body")
		return
	}

	job, err := h.grid.AddJob(grid.NewJobParams{
		Name:     req.Name,
		Flags:    req.Flags,
		WallTime: req.WallTime,
		Deadline: req.Deadline,
		Budget:   req.Budget,
		JobType:  req.JobType,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if h.store != nil {
		if err := h.store.RecordJobCreated(strconv.Itoa(job.JobID), job.CreatedTS); err != nil {
			jobLogger := log.WithJobID(job.JobID)
			jobLogger.Warn().Err(err).Msg("failed to record job in manifest")
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"id": job.JobID})
}

func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.grid.GetJob(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *handlers) killJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, errs := h.grid.KillJob(r.Context(), id, "killed by client request")
	if job == nil {
		writeError(w, errs[0])
		return
	}

	resp := map[string]interface{}{"job": job}
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		resp["info_msg"] = "some running units could not be reached: " + strings.Join(msgs, "; ")
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateJobStatusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) updateJobStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req updateJobStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "malformed request body")
		return
	}
	job, err := h.grid.UpdateJobStatus(id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// jobOutput lists the output artifacts of every FINISHED/KILLED work
// unit as `.o`/`.e` files, per the naming convention the worker nodes
// write stdout/stderr under. A killed job's listing is necessarily
// partial, so it carries an info_msg rather than silently looking
// complete.
func (h *handlers) jobOutput(w http.ResponseWriter, r *http.Request) {
	job, err := h.grid.GetJob(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var uris []string
	for _, u := range job.WorkUnits {
		if u.Status != grid.WorkUnitFinished && u.Status != grid.WorkUnitKilled {
			continue
		}
		for _, suffix := range []string{"o", "e"} {
			name := fmt.Sprintf("%d.%s", u.WorkUnitID, suffix)
			if _, err := os.Stat(job.OutputPath(name)); err == nil {
				uris = append(uris, fmt.Sprintf("/job/%d/output/%s", job.JobID, name))
			}
		}
	}

	resp := map[string]interface{}{"output_URIs": uris}
	if job.Status == grid.JobKilled {
		resp["info_msg"] = "job was killed; output may be incomplete"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) jobOutputFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	job, err := h.grid.GetJob(vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	http.ServeFile(w, r, job.OutputPath(vars["file_name"]))
}

type reportWorkUnitRequest struct {
	WorkUnitID int     `json:"work_unit_id"`
	KillMsg    *string `json:"kill_msg"`
}

func (h *handlers) reportWorkUnit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req reportWorkUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "malformed request body")
		return
	}

	msg := ""
	if req.KillMsg != nil {
		msg = *req.KillMsg
	}
	unit, err := h.grid.ReportWorkUnit(id, req.WorkUnitID, msg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}
