package grid

import "time"

// WorkUnitStatus is the lifecycle state of a single WorkUnit.
type WorkUnitStatus string

const (
	WorkUnitPending  WorkUnitStatus = "PENDING"
	WorkUnitQueued   WorkUnitStatus = "QUEUED"
	WorkUnitRunning  WorkUnitStatus = "RUNNING"
	WorkUnitFinished WorkUnitStatus = "FINISHED"
	WorkUnitKilled   WorkUnitStatus = "KILLED"
)

// WorkUnit is the execution state of one input file belonging to a Job.
// It holds JobID rather than a *Job: the job/work-unit relationship is
// cyclic, so the unit resolves its job by id through the Grid's job map
// while the Job holds its units directly.
type WorkUnit struct {
	WorkUnitID int            `json:"work_unit_id"`
	JobID      int            `json:"job_id"`
	Filename   string         `json:"filename"`
	Status     WorkUnitStatus `json:"status"`
	NodeID     *int           `json:"node_id"`
	TaskID     *string        `json:"task_id"`
	KillMsg    string         `json:"kill_msg,omitempty"`
	CreatedTS  int64          `json:"created_ts"`
	StartedTS  int64          `json:"started_ts,omitempty"`
	FinishedTS int64          `json:"finished_ts,omitempty"`
}

// JobStatus is the aggregate lifecycle state of a Job.
type JobStatus string

const (
	JobNew      JobStatus = "NEW"
	JobReady    JobStatus = "READY"
	JobPending  JobStatus = "PENDING"
	JobRunning  JobStatus = "RUNNING"
	JobFinished JobStatus = "FINISHED"
	JobKilled   JobStatus = "KILLED"
)

// JobType selects which typed node queue a Job's work units are
// eligible to run on.
type JobType string

const (
	JobTypeDefault JobType = "DEFAULT"
	JobTypeBatch   JobType = "BATCH"
	JobTypeFast    JobType = "FAST"
)

// Job is the aggregate of work units plus job-level policy.
type Job struct {
	JobID      int         `json:"job_id"`
	Name       string      `json:"name"`
	Flags      string      `json:"flags"`
	WallTime   int         `json:"wall_time_seconds"`
	Deadline   int64       `json:"deadline"`
	Budget     int         `json:"budget"`
	JobType    JobType     `json:"job_type"`
	Status     JobStatus   `json:"status"`
	CreatedTS  int64       `json:"created_ts"`
	KillMsg    string      `json:"kill_msg,omitempty"`
	Executable string      `json:"executable,omitempty"`
	Files      []string    `json:"files"`
	WorkUnits  []*WorkUnit `json:"work_units"`

	root string // on-disk job directory root, not serialized
}

// NodeStatus is the liveness state of a registered Node.
type NodeStatus string

const (
	NodeOnline NodeStatus = "ONLINE"
	NodeDead   NodeStatus = "DEAD"
)

// WorkUnitRef identifies a WorkUnit owned by some Job, for storage in a
// Node's assignment list without holding a pointer into the job/unit
// arena.
type WorkUnitRef struct {
	JobID      int `json:"job_id"`
	WorkUnitID int `json:"work_unit_id"`
}

// Node is a worker registered with the grid.
type Node struct {
	NodeID      int           `json:"node_id"`
	NodeIdent   string        `json:"node_ident"`
	Host        string        `json:"host"`
	Port        int           `json:"port"`
	Cores       int           `json:"cores"`
	Programs    []string      `json:"programs"`
	Cost        int           `json:"cost"`
	CPU         float64       `json:"cpu"`
	Type        JobType       `json:"type"`
	Status      NodeStatus    `json:"status"`
	WorkUnits   []WorkUnitRef `json:"work_units"`
	CreatedTS   int64         `json:"created_ts"`
	CameOnline  int64         `json:"came_online_ts"`
	HeartbeatTS int64         `json:"heartbeat_ts"`
}

func now() int64 {
	return time.Now().Unix()
}
