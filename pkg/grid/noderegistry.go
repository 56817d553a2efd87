package grid

import (
	"math"
	"strconv"
	"sync"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
)

// NodeTimeoutSeconds is how long a node may go without a heartbeat
// before it's declared DEAD.
const NodeTimeoutSeconds = 10

// TypedQueue describes one of the node queues partitioned by JobType:
// its target share of the fleet, the longest wall time a job of this
// type may request (-1 means unbounded), and the ids of ONLINE nodes
// currently assigned to it.
type TypedQueue struct {
	TargetProportion float64
	MaxWallTime      int // seconds; -1 = unbounded
	NodeIDs          []int
}

// NodeRegistry owns node records, heartbeats, and the typed queues
// nodes are load-balanced across. It is always accessed with the
// Grid's queueLock held; it holds no lock of its own beyond id
// allocation.
type NodeRegistry struct {
	nodes          map[int]*Node
	nodeIdents     map[string]int
	nextNodeID     int
	queues         map[JobType]*TypedQueue
	timeoutSeconds int64

	mu sync.Mutex // guards nextNodeID allocation only; state mutation is under Grid's queue_lock
}

func defaultQueues() map[JobType]*TypedQueue {
	return map[JobType]*TypedQueue{
		JobTypeDefault: {TargetProportion: 0.5, MaxWallTime: 7 * 24 * 3600},
		JobTypeBatch:   {TargetProportion: 0.3, MaxWallTime: -1},
		JobTypeFast:    {TargetProportion: 0.2, MaxWallTime: 3600},
	}
}

// NewNodeRegistry constructs an empty registry with the default typed
// queue proportions and wall-time caps.
func NewNodeRegistry() *NodeRegistry {
	return NewNodeRegistryWithConfig(RegistryConfig{})
}

// RegistryConfig overrides the registry's defaults, sourced from
// pkg/config at startup. Zero-value fields fall back to the built-in
// defaults.
type RegistryConfig struct {
	NodeTimeoutSeconds int
	Queues             map[JobType]*TypedQueue
}

// NewNodeRegistryWithConfig constructs a registry honoring an
// operator's queue/timeout overrides, falling back to the defaults
// for anything left unset.
func NewNodeRegistryWithConfig(cfg RegistryConfig) *NodeRegistry {
	timeout := int64(cfg.NodeTimeoutSeconds)
	if timeout <= 0 {
		timeout = NodeTimeoutSeconds
	}
	queues := cfg.Queues
	if queues == nil {
		queues = defaultQueues()
	}
	return &NodeRegistry{
		nodes:          make(map[int]*Node),
		nodeIdents:     make(map[string]int),
		queues:         queues,
		timeoutSeconds: timeout,
	}
}

// ValidJobTypes returns the configured typed-queue names, for error
// messages and the /scheduler-adjacent validation in Job construction.
func (r *NodeRegistry) ValidJobTypes() []string {
	out := make([]string, 0, len(r.queues))
	for t := range r.queues {
		out = append(out, string(t))
	}
	return out
}

// QueueConfig returns the typed queue configuration for jobType, for
// use by Job construction to validate wall_time against the queue's
// max_wall_time.
func (r *NodeRegistry) QueueConfig(jobType JobType) (*TypedQueue, bool) {
	q, ok := r.queues[jobType]
	return q, ok
}

// AddNode registers a node (or re-registers one at a known host:port),
// computing its typed-queue assignment and returning its stable id.
func (r *NodeRegistry) AddNode(host string, port, cores int, programs []string, cost int) int {
	ident := nodeIdent(host, port)

	nodeID, known := r.nodeIdents[ident]
	if !known {
		r.mu.Lock()
		nodeID = r.nextNodeID
		r.nextNodeID++
		r.mu.Unlock()
		r.nodeIdents[ident] = nodeID
	}

	ts := now()
	nodeType := r.assignType(nodeID)

	node := &Node{
		NodeID:      nodeID,
		NodeIdent:   ident,
		Host:        host,
		Port:        port,
		Cores:       cores,
		Programs:    programs,
		Cost:        cost,
		Type:        nodeType,
		Status:      NodeOnline,
		WorkUnits:   nil,
		CameOnline:  ts,
		HeartbeatTS: ts,
	}
	if existing, ok := r.nodes[nodeID]; ok {
		node.CreatedTS = existing.CreatedTS
	} else {
		node.CreatedTS = ts
	}

	r.queues[nodeType].NodeIDs = append(r.queues[nodeType].NodeIDs, nodeID)
	r.nodes[nodeID] = node

	return nodeID
}

func nodeIdent(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}

// GetNode resolves a node by numeric id. Callers needing lookup by
// "host:port" resolve through GetNodeByIdent instead; two explicit
// entry points rather than one argument that changes type.
func (r *NodeRegistry) GetNode(nodeID int) (*Node, error) {
	n, ok := r.nodes[nodeID]
	if !ok {
		return nil, gridErrors.NodeNotFound(nodeID)
	}
	return n, nil
}

// GetNodeByIdent resolves "host:port" to its stable node id.
func (r *NodeRegistry) GetNodeByIdent(ident string) (*Node, error) {
	id, ok := r.nodeIdents[ident]
	if !ok {
		return nil, gridErrors.NodeNotFound(ident)
	}
	return r.GetNode(id)
}

// UpdateNode merges a partial update (cores/programs/cost/cpu) into
// the node record and always refreshes heartbeat_ts; any POST to a
// node's URL counts as a heartbeat.
func (r *NodeRegistry) UpdateNode(nodeID int, update NodeUpdate) (*Node, error) {
	n, err := r.GetNode(nodeID)
	if err != nil {
		return nil, err
	}
	if update.Cores != nil {
		n.Cores = *update.Cores
	}
	if update.Programs != nil {
		n.Programs = update.Programs
	}
	if update.Cost != nil {
		n.Cost = *update.Cost
	}
	if update.CPU != nil {
		n.CPU = *update.CPU
	}
	n.HeartbeatTS = now()
	return n, nil
}

// NodeUpdate is the typed partial-update shape accepted by UpdateNode.
// Unknown JSON fields in a POST body are dropped by the API layer
// before reaching here; arbitrary fields are never stored blindly.
type NodeUpdate struct {
	Cores    *int
	Programs []string
	Cost     *int
	CPU      *float64
}

// FreeNodes returns ONLINE nodes with at least one free core, from the
// given typed queue (or all nodes if preferredType is nil). If the
// preferred queue is empty, falls back to the DEFAULT queue.
func (r *NodeRegistry) FreeNodes(preferredType *JobType) ([]*Node, error) {
	var candidates []*Node

	if preferredType == nil {
		for _, n := range r.nodes {
			candidates = append(candidates, n)
		}
	} else {
		q, ok := r.queues[*preferredType]
		if !ok {
			return nil, gridErrors.InvalidNodeType(string(*preferredType))
		}
		ids := q.NodeIDs
		if len(ids) == 0 {
			ids = r.queues[JobTypeDefault].NodeIDs
		}
		for _, id := range ids {
			if n, ok := r.nodes[id]; ok {
				candidates = append(candidates, n)
			}
		}
	}

	free := make([]*Node, 0, len(candidates))
	for _, n := range candidates {
		if n.Status == NodeOnline && n.Cores-len(n.WorkUnits) > 0 {
			free = append(free, n)
		}
	}
	return free, nil
}

// Sweep marks any ONLINE node silent for more than NodeTimeoutSeconds
// as DEAD, removes it from its typed queue, and returns the refs of
// its RUNNING work units so the caller can requeue them.
func (r *NodeRegistry) Sweep() []WorkUnitRef {
	var orphaned []WorkUnitRef
	nowTS := now()

	for _, n := range r.nodes {
		if n.Status != NodeOnline {
			continue
		}
		if n.HeartbeatTS+r.timeoutSeconds >= nowTS {
			continue
		}

		n.Status = NodeDead
		r.removeFromQueues(n.NodeID)
		orphaned = append(orphaned, n.WorkUnits...)
		n.WorkUnits = nil
	}

	return orphaned
}

func (r *NodeRegistry) removeFromQueues(nodeID int) {
	for _, q := range r.queues {
		for i, id := range q.NodeIDs {
			if id == nodeID {
				q.NodeIDs = append(q.NodeIDs[:i], q.NodeIDs[i+1:]...)
				break
			}
		}
	}
}

// assignType picks the queue whose realized proportion, after adding
// this node, lands closest to its target. First removes nodeID from
// any queue it may already be in (re-registration case).
func (r *NodeRegistry) assignType(nodeID int) JobType {
	r.removeFromQueues(nodeID)

	// Denominator floored at 1 so the very first registration never
	// divides by zero.
	totalNodes := float64(max(1, len(r.nodeIdents)))

	var minType JobType = JobTypeDefault
	minDist := math.Inf(1)

	// Iterate in a fixed order (map range order is randomized in Go) so
	// that ties resolve deterministically to the first queue listed,
	// DEFAULT.
	for _, t := range []JobType{JobTypeDefault, JobTypeBatch, JobTypeFast} {
		q := r.queues[t]
		newProportion := float64(len(q.NodeIDs)+1) / totalNodes
		dist := math.Sqrt(math.Abs(newProportion - q.TargetProportion))
		if dist < minDist {
			minDist = dist
			minType = t
		}
	}
	return minType
}

