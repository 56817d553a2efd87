package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
)

type createNodeRequest struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Cores    int      `json:"cores"`
	Programs []string `json:"programs"`
	Cost     int      `json:"cost"`
}

func (h *handlers) listNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.grid.ListNodes())
}

func (h *handlers) createNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id := h.grid.AddNode(req.Host, req.Port, req.Cores, req.Programs, req.Cost)
	writeJSON(w, http.StatusOK, map[string]int{"node_id": id})
}

func (h *handlers) getNode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeErrorMsg(w, http.StatusNotFound, "invalid node id")
		return
	}
	node, err := h.grid.GetNode(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

type updateNodeRequest struct {
	Cores    *int     `json:"cores"`
	Programs []string `json:"programs"`
	Cost     *int     `json:"cost"`
	CPU      *float64 `json:"cpu"`
}

// updateNode also serves as the node heartbeat route; UpdateNode
// always refreshes heartbeat_ts regardless of which fields the body
// carries.
func (h *handlers) updateNode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeErrorMsg(w, http.StatusNotFound, "invalid node id")
		return
	}

	var req updateNodeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	node, err := h.grid.UpdateNode(id, grid.NodeUpdate{
		Cores:    req.Cores,
		Programs: req.Programs,
		Cost:     req.Cost,
		CPU:      req.CPU,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}
