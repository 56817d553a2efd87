package grid

import (
	"context"
	"strconv"
	"sync"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
)

// SchedulerController lets Grid restart the running scheduler strategy
// without importing pkg/scheduler; the concrete *scheduler.Scheduler
// satisfies this structurally once wired in by the CLI (C14).
type SchedulerController interface {
	Restart(name string) error
}

// Grid is the coordinator's in-memory state and the facade every API
// handler and the scheduler loop operate through. All mutation goes
// through queueLock, one coarse mutex guarding jobs, nodes, and the
// queue together; adequate at the grid's message rate, and it keeps
// scheduling decisions from ever overlapping on the same free-node
// list.
type Grid struct {
	queueLock sync.Mutex

	jobs      map[int]*Job
	nextJobID int

	nodes      *NodeRegistry
	dispatcher *Dispatcher

	scheduler     SchedulerController
	schedulerName string

	jobsRoot string
}

// New constructs an empty Grid rooted at jobsRoot for on-disk job
// directories, using the default typed-queue and node-timeout
// configuration.
func New(jobsRoot string) *Grid {
	return NewWithConfig(jobsRoot, RegistryConfig{})
}

// NewWithConfig is New, but honoring operator overrides to the typed
// node queues and node timeout.
func NewWithConfig(jobsRoot string, regCfg RegistryConfig) *Grid {
	return &Grid{
		jobs:       make(map[int]*Job),
		nodes:      NewNodeRegistryWithConfig(regCfg),
		dispatcher: NewDispatcher(),
		jobsRoot:   jobsRoot,
	}
}

// AttachScheduler wires in the running scheduler so SetSchedulerName
// can restart it. Called once during startup.
func (g *Grid) AttachScheduler(s SchedulerController, name string) {
	g.scheduler = s
	g.schedulerName = name
}

// AddJob validates and registers a new job, returning it in the NEW
// state (callers move it to READY with UpdateJobStatus once input files
// are attached).
func (g *Grid) AddJob(p NewJobParams) (*Job, error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	jobID := g.nextJobID
	job, err := newJob(jobID, g.jobsRoot, g.nodes, p)
	if err != nil {
		return nil, err
	}
	g.nextJobID++
	g.jobs[jobID] = job
	metrics.JobsTotal.WithLabelValues(string(job.Status)).Inc()
	addLogger := log.WithJobID(jobID)
	addLogger.Info().Str("name", job.Name).Msg("job added")
	return job, nil
}

// GetJob resolves a job by numeric id, accepting a numeric string too
// (routes pass path parameters as strings).
func (g *Grid) GetJob(id string) (*Job, error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	return g.getJobLocked(id)
}

func (g *Grid) getJobLocked(id string) (*Job, error) {
	jobID, err := strconv.Atoi(id)
	if err != nil {
		return nil, gridErrors.JobNotFound(id)
	}
	job, ok := g.jobs[jobID]
	if !ok {
		return nil, gridErrors.JobNotFound(id)
	}
	return job, nil
}

// UpdateJobStatus currently only accepts a transition to READY; any
// other requested status is rejected.
func (g *Grid) UpdateJobStatus(id, status string) (*Job, error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	job, err := g.getJobLocked(id)
	if err != nil {
		return nil, err
	}
	if JobStatus(status) != JobReady {
		return nil, gridErrors.InvalidJobStatus(status)
	}
	if err := job.ready(); err != nil {
		return nil, err
	}
	metrics.JobsTotal.WithLabelValues(string(JobNew)).Dec()
	metrics.JobsTotal.WithLabelValues(string(JobReady)).Inc()
	g.addToQueueLocked(job)
	return job, nil
}

func (g *Grid) addToQueueLocked(job *Job) {
	for _, u := range job.WorkUnits {
		metrics.WorkUnitsTotal.WithLabelValues(string(u.Status)).Inc()
	}
	metrics.QueueDepth.Add(float64(len(job.WorkUnits)))
}

// GetQueued returns a snapshot of every currently QUEUED work unit
// paired with its job; taken under queueLock, not a live iterator, so
// callers never observe units mutating mid-walk.
func (g *Grid) GetQueued() []QueuedUnit {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	return g.queuedLocked()
}

func (g *Grid) queuedLocked() []QueuedUnit {
	var out []QueuedUnit
	for _, job := range g.jobs {
		for _, u := range job.WorkUnits {
			if u.Status == WorkUnitQueued {
				out = append(out, QueuedUnit{Job: job, Unit: u})
			}
		}
	}
	return out
}

// KillJob sends a kill to every RUNNING unit's node, then marks the
// job (and all its units) KILLED regardless of whether any kill call
// failed; failures are collected and returned, not swallowed, so the
// caller can surface them as an info_msg.
func (g *Grid) KillJob(ctx context.Context, id, msg string) (*Job, []error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	job, err := g.getJobLocked(id)
	if err != nil {
		return nil, []error{err}
	}

	var errs []error
	for _, u := range job.WorkUnits {
		if u.Status != WorkUnitRunning || u.NodeID == nil {
			continue
		}
		node, err := g.nodes.GetNode(*u.NodeID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := g.dispatcher.Kill(ctx, node, u); err != nil {
			errs = append(errs, err)
		}
	}

	job.kill(msg)
	metrics.JobsTotal.WithLabelValues(string(JobKilled)).Inc()
	return job, errs
}

// AddFile registers an uploaded input file against a NEW job, creating
// its PENDING work unit; the upload handler's hook for files arriving
// after job creation.
func (g *Grid) AddFile(id, filename string) error {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	job, err := g.getJobLocked(id)
	if err != nil {
		return err
	}
	return job.AddFile(filename)
}

// AddExecutable registers an uploaded driver program against a NEW
// job.
func (g *Grid) AddExecutable(id, filename string) error {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	job, err := g.getJobLocked(id)
	if err != nil {
		return err
	}
	return job.AddExecutable(filename)
}

// ReportWorkUnit implements the node-facing POST /job/{id}/workunit
// operation: with killMsg empty the unit transitions to FINISHED
// exactly as FinishWorkUnit does; otherwise only this unit is marked
// KILLED (and the job's aggregate status re-derived), without touching
// any of the job's other units; unlike KillJob, which kills the whole
// job.
func (g *Grid) ReportWorkUnit(id string, workUnitID int, killMsg string) (*WorkUnit, error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	job, err := g.getJobLocked(id)
	if err != nil {
		return nil, err
	}
	unit := job.findWorkUnit(workUnitID)
	if unit == nil {
		return nil, gridErrors.JobNotFound(id)
	}
	nodeID := unit.NodeID

	if killMsg != "" {
		unit.KillMsg = killMsg
		unit.kill()
		job.refreshStatus()
		metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitRunning)).Dec()
		metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitKilled)).Inc()
	} else {
		if err := job.finishWorkUnit(workUnitID); err != nil {
			return nil, err
		}
		metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitRunning)).Dec()
		metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitFinished)).Inc()
	}

	if nodeID != nil {
		if node, err := g.nodes.GetNode(*nodeID); err == nil {
			node.WorkUnits = removeWorkUnitRef(node.WorkUnits, job.JobID, workUnitID)
		}
	}
	return unit, nil
}

// FinishWorkUnit marks one work unit of job FINISHED and frees it from
// its node's assignment list.
func (g *Grid) FinishWorkUnit(jobID string, workUnitID int) error {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	job, err := g.getJobLocked(jobID)
	if err != nil {
		return err
	}
	unit := job.findWorkUnit(workUnitID)
	if unit == nil {
		return gridErrors.JobNotFound(jobID)
	}
	nodeID := unit.NodeID

	if err := job.finishWorkUnit(workUnitID); err != nil {
		return err
	}
	metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitRunning)).Dec()
	metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitFinished)).Inc()

	if nodeID != nil {
		if node, err := g.nodes.GetNode(*nodeID); err == nil {
			node.WorkUnits = removeWorkUnitRef(node.WorkUnits, job.JobID, workUnitID)
		}
	}
	return nil
}

func removeWorkUnitRef(refs []WorkUnitRef, jobID, workUnitID int) []WorkUnitRef {
	out := refs[:0]
	for _, r := range refs {
		if r.JobID == jobID && r.WorkUnitID == workUnitID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// AddNode registers or re-registers a worker node.
func (g *Grid) AddNode(host string, port, cores int, programs []string, cost int) int {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	id := g.nodes.AddNode(host, port, cores, programs, cost)
	metrics.NodesTotal.WithLabelValues(string(g.nodes.nodes[id].Type), string(NodeOnline)).Inc()
	return id
}

// GetNode resolves a node by numeric id.
func (g *Grid) GetNode(nodeID int) (*Node, error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	return g.nodes.GetNode(nodeID)
}

// ListJobs returns a snapshot map of every job by id, for GET /job.
func (g *Grid) ListJobs() map[int]*Job {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	out := make(map[int]*Job, len(g.jobs))
	for id, job := range g.jobs {
		out[id] = job
	}
	return out
}

// ListNodes returns a snapshot map of every node by id, for GET /node.
func (g *Grid) ListNodes() map[int]*Node {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	out := make(map[int]*Node, len(g.nodes.nodes))
	for id, n := range g.nodes.nodes {
		out[id] = n
	}
	return out
}

// JobsRoot exposes the on-disk jobs directory root for the upload/
// download handlers.
func (g *Grid) JobsRoot() string {
	return g.jobsRoot
}

// UpdateNode applies a partial update and refreshes the node's
// heartbeat.
func (g *Grid) UpdateNode(nodeID int, update NodeUpdate) (*Node, error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()
	return g.nodes.UpdateNode(nodeID, update)
}

// SetSchedulerName validates and restarts the active scheduler
// strategy, delegating the actual swap to the attached controller.
func (g *Grid) SetSchedulerName(name string) error {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	if g.scheduler == nil {
		return gridErrors.InvalidScheduler(name, nil)
	}
	if err := g.scheduler.Restart(name); err != nil {
		return err
	}
	g.schedulerName = name
	return nil
}

// RunSchedulingCycle is the body of one scheduler tick: under
// queueLock, iterate every free node and hand it the strategy's next
// queued work unit, dispatching until either a node's type runs dry or
// every free node has been offered one. A NodeUnavailable dispatch
// error marks the node DEAD and moves on to the next one, leaving the
// unit QUEUED for the following cycle.
func (g *Grid) RunSchedulingCycle(ctx context.Context, strategy Strategy) (assigned int, err error) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	candidates := g.queuedLocked()
	if len(candidates) == 0 {
		return 0, nil
	}

	for _, nodeType := range []JobType{JobTypeDefault, JobTypeBatch, JobTypeFast} {
		free, ferr := g.nodes.FreeNodes(&nodeType)
		if ferr != nil {
			continue
		}
		for _, node := range free {
			pool := FilterByType(candidates, nodeType)
			if len(pool) == 0 {
				break
			}
			qu, ok := strategy.NextWorkUnit(pool, nodeType)
			if !ok {
				break
			}

			if derr := g.dispatcher.Dispatch(ctx, node, qu.Job, qu.Unit); derr != nil {
				node.Status = NodeDead
				metrics.NodesTotal.WithLabelValues(string(node.Type), string(NodeDead)).Inc()
				continue
			}

			metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitQueued)).Dec()
			metrics.WorkUnitsTotal.WithLabelValues(string(WorkUnitRunning)).Inc()
			metrics.QueueDepth.Dec()
			assigned++
			candidates = removeQueuedUnit(candidates, qu)
		}
	}

	return assigned, nil
}

// NodeTypeStatus keys the node count snapshot by type and liveness.
type NodeTypeStatus struct {
	Type   JobType
	Status NodeStatus
}

// GridSnapshot is a point-in-time read of aggregate Grid state, taken
// under queueLock, for the periodic MetricsCollector; independent of
// the inline counters Dispatcher/Grid update per-event.
type GridSnapshot struct {
	JobsByStatus      map[JobStatus]int
	WorkUnitsByStatus map[WorkUnitStatus]int
	NodesByTypeStatus map[NodeTypeStatus]int
	QueueDepth        int
}

// Snapshot takes a consistent read of job, work unit, node, and queue
// state for metrics collection.
func (g *Grid) Snapshot() GridSnapshot {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	snap := GridSnapshot{
		JobsByStatus:      make(map[JobStatus]int),
		WorkUnitsByStatus: make(map[WorkUnitStatus]int),
		NodesByTypeStatus: make(map[NodeTypeStatus]int),
	}

	for _, job := range g.jobs {
		snap.JobsByStatus[job.Status]++
		for _, u := range job.WorkUnits {
			snap.WorkUnitsByStatus[u.Status]++
			if u.Status == WorkUnitQueued {
				snap.QueueDepth++
			}
		}
	}
	for _, n := range g.nodes.nodes {
		snap.NodesByTypeStatus[NodeTypeStatus{Type: n.Type, Status: n.Status}]++
	}

	return snap
}

func removeQueuedUnit(candidates []QueuedUnit, target QueuedUnit) []QueuedUnit {
	out := candidates[:0]
	for _, c := range candidates {
		if c.Job.JobID == target.Job.JobID && c.Unit.WorkUnitID == target.Unit.WorkUnitID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Sweep runs the registry's liveness sweep and requeues any work units orphaned
// by a node timing out, under queueLock so it never races a concurrent
// scheduling cycle or API mutation.
func (g *Grid) Sweep() (requeued int) {
	g.queueLock.Lock()
	defer g.queueLock.Unlock()

	orphans := g.nodes.Sweep()
	for _, ref := range orphans {
		job, ok := g.jobs[ref.JobID]
		if !ok {
			continue
		}
		unit := job.findWorkUnit(ref.WorkUnitID)
		if unit == nil {
			continue
		}
		unit.reset()
		requeued++
	}
	if requeued > 0 {
		metrics.SweepRequeuedTotal.Add(float64(requeued))
		metrics.QueueDepth.Add(float64(requeued))
		sweepLogger := log.WithComponent("sweep")
		sweepLogger.Warn().Int("requeued", requeued).Msg("requeued work units after node timeout")
	}
	return requeued
}
