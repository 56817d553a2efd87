package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sritchie73/bad-boyz-cluster/pkg/config"
	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
	"github.com/sritchie73/bad-boyz-cluster/pkg/jobstore"
	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
	"github.com/sritchie73/bad-boyz-cluster/pkg/scheduler"
)

// handlers holds everything a route handler needs; its methods are
// deliberately thin, each one mapping a request straight onto a single
// Grid operation.
type handlers struct {
	grid  *grid.Grid
	store *jobstore.Store
	sched *scheduler.Scheduler
}

// newRouter builds the coordinator's route table over a mux.Router, wrapping
// every authenticated route in its required-role check and the whole
// router in the request-logging and recovery middleware.
func newRouter(cfg config.Config, g *grid.Grid, store *jobstore.Store, sched *scheduler.Scheduler) http.Handler {
	h := &handlers{grid: g, store: store, sched: sched}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)

	r.HandleFunc("/scheduler", withRole(cfg, config.RoleAdmin, h.putScheduler)).Methods(http.MethodPut)

	r.HandleFunc("/job", withRole(cfg, config.RoleClient, h.listJobs)).Methods(http.MethodGet)
	r.HandleFunc("/job", withRole(cfg, config.RoleClient, h.createJob)).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}", withRole(cfg, config.RoleClient, h.getJob)).Methods(http.MethodGet)
	r.HandleFunc("/job/{id}", withRole(cfg, config.RoleClient, h.killJob)).Methods(http.MethodDelete)
	r.HandleFunc("/job/{id}/status", withRole(cfg, config.RoleClient, h.updateJobStatus)).Methods(http.MethodPut)
	r.HandleFunc("/job/{id}/output", withRole(cfg, config.RoleClient, h.jobOutput)).Methods(http.MethodGet)
	r.HandleFunc("/job/{id}/output/{file_name}", withRole(cfg, config.RoleClient, h.jobOutputFile)).Methods(http.MethodGet)
	r.HandleFunc("/job/{id}/upload", withAnyRole(cfg, h.multipartUpload)).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}/workunit", withRole(cfg, config.RoleNode, h.reportWorkUnit)).Methods(http.MethodPost)
	r.HandleFunc("/job/{id}/{type}/{path:.*}", withRole(cfg, config.RoleNode, h.getJobArtifact)).Methods(http.MethodGet)
	r.HandleFunc("/job/{id}/{type}/{path:.*}", withAnyRole(cfg, h.putJobArtifact)).Methods(http.MethodPut)

	r.HandleFunc("/node", withRole(cfg, config.RoleClient, h.listNodes)).Methods(http.MethodGet)
	r.HandleFunc("/node", withRole(cfg, config.RoleNode, h.createNode)).Methods(http.MethodPost)
	r.HandleFunc("/node/{id}", withRole(cfg, config.RoleNode, h.getNode)).Methods(http.MethodGet)
	r.HandleFunc("/node/{id}", withRole(cfg, config.RoleNode, h.updateNode)).Methods(http.MethodPost)

	r.HandleFunc("/log", withRole(cfg, config.RoleClient, h.getLog)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", metrics.ReadyHandler()).Methods(http.MethodGet)

	return r
}
