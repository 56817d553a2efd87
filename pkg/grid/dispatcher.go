package grid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
	"github.com/sritchie73/bad-boyz-cluster/pkg/walltime"
)

// DispatchTimeout bounds how long the dispatcher waits for a node to
// accept or release a task before treating it as unavailable.
const DispatchTimeout = 5 * time.Second

// dispatchTask is the wire body POSTed to a node's /task endpoint.
type dispatchTask struct {
	WorkUnitID int    `json:"work_unit_id"`
	JobID      int    `json:"job_id"`
	Executable string `json:"executable"`
	Flags      string `json:"flags"`
	Filename   string `json:"filename"`
	WallTime   string `json:"wall_time"`
}

// dispatchReply is the node's acceptance response: the task handle it
// minted for this work unit.
type dispatchReply struct {
	TaskID string `json:"task_id"`
}

// Dispatcher pushes work units onto nodes and pulls them back via
// HTTP/JSON, the grid's only node-facing transport.
type Dispatcher struct {
	client *http.Client
}

// NewDispatcher builds a Dispatcher sharing one http.Client across all
// node calls so connections are reused.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{client: &http.Client{Timeout: DispatchTimeout}}
}

// Dispatch sends a work unit to a node and, on success, transitions it
// to RUNNING under the task id the node replies with. Any transport,
// non-2xx, or malformed-response failure is reported as
// NodeUnavailable, never as a generic error, so callers can uniformly
// decide whether to requeue.
func (d *Dispatcher) Dispatch(ctx context.Context, node *Node, job *Job, unit *WorkUnit) error {
	body, err := json.Marshal(dispatchTask{
		WorkUnitID: unit.WorkUnitID,
		JobID:      job.JobID,
		Executable: job.Executable,
		Flags:      job.Flags,
		Filename:   unit.Filename,
		WallTime:   walltime.FromSeconds(job.WallTime).String(),
	})
	if err != nil {
		return fmt.Errorf("encoding dispatch body: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/task", node.Host, node.Port)
	reqCtx, cancel := context.WithTimeout(ctx, DispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger := log.WithNodeID(node.NodeID)
	timer := metrics.NewTimer()
	resp, err := d.client.Do(req)
	timer.ObserveDuration(metrics.DispatchDuration)
	if err != nil {
		metrics.IncDispatch("node_unavailable")
		logger.Error().Err(err).Msg("dispatch request failed")
		return gridErrors.NodeUnavailable(url)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		metrics.IncDispatch("node_unavailable")
		logger.Error().Int("status", resp.StatusCode).Msg("node rejected task")
		return gridErrors.NodeUnavailable(url)
	}

	var reply dispatchReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil || reply.TaskID == "" {
		metrics.IncDispatch("node_unavailable")
		logger.Error().Err(err).Msg("node returned malformed task acceptance")
		return gridErrors.NodeUnavailable(url)
	}

	if err := unit.running(node.NodeID, reply.TaskID); err != nil {
		return err
	}
	node.WorkUnits = append(node.WorkUnits, WorkUnitRef{JobID: job.JobID, WorkUnitID: unit.WorkUnitID})
	metrics.IncDispatch("assigned")
	return nil
}

// Kill sends a DELETE for the task currently running a work unit. A
// unit with no TaskID (never dispatched) is a local no-op.
func (d *Dispatcher) Kill(ctx context.Context, node *Node, unit *WorkUnit) error {
	if unit.TaskID == nil {
		return nil
	}

	url := fmt.Sprintf("http://%s:%d/task/%s", node.Host, node.Port, *unit.TaskID)
	reqCtx, cancel := context.WithTimeout(ctx, DispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("building kill request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		killLogger := log.WithNodeID(node.NodeID)
		killLogger.Warn().Err(err).Msg("kill request failed")
		return gridErrors.NodeUnavailable(url)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotFound {
		return gridErrors.NodeUnavailable(url)
	}
	metrics.IncDispatch("killed")
	return nil
}
