package grid

import (
	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
)

func newWorkUnit(jobID, workUnitID int, filename string) *WorkUnit {
	return &WorkUnit{
		WorkUnitID: workUnitID,
		JobID:      jobID,
		Filename:   filename,
		Status:     WorkUnitPending,
		CreatedTS:  now(),
	}
}

// running transitions QUEUED -> RUNNING, recording the node and task
// handle that now own this unit.
func (u *WorkUnit) running(nodeID int, taskID string) error {
	if u.Status != WorkUnitQueued {
		return gridErrors.InvalidTransition(string(u.Status), string(WorkUnitRunning), "work unit")
	}
	u.Status = WorkUnitRunning
	u.NodeID = &nodeID
	u.TaskID = &taskID
	u.StartedTS = now()
	return nil
}

// finish transitions RUNNING -> FINISHED. Finishing an already-terminal
// unit (KILLED or FINISHED) is rejected rather than silently accepted:
// a KILLED unit must never be resurrected as FINISHED.
func (u *WorkUnit) finish() error {
	if u.Status != WorkUnitRunning {
		return gridErrors.InvalidTransition(string(u.Status), string(WorkUnitFinished), "work unit")
	}
	u.Status = WorkUnitFinished
	u.FinishedTS = now()
	return nil
}

// kill transitions any non-terminal unit to KILLED, preserving KillMsg
// if already set by the caller.
func (u *WorkUnit) kill() {
	if u.Status == WorkUnitFinished || u.Status == WorkUnitKilled {
		return
	}
	u.Status = WorkUnitKilled
	u.FinishedTS = now()
}

// reset transitions RUNNING -> QUEUED, clearing node/task assignment.
// A no-op on an already-QUEUED unit; terminal units are never
// requeued.
func (u *WorkUnit) reset() {
	if u.Status != WorkUnitRunning {
		return
	}
	u.Status = WorkUnitQueued
	u.NodeID = nil
	u.TaskID = nil
	u.StartedTS = 0
}
