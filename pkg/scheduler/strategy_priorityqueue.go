package scheduler

import "github.com/sritchie73/bad-boyz-cluster/pkg/grid"

// priorityQueue orders by job_type priority FAST > DEFAULT > BATCH,
// then by deadline.
type priorityQueue struct{}

func newPriorityQueue() *priorityQueue { return &priorityQueue{} }

func (s *priorityQueue) Name() string { return "PriorityQueue" }

func jobTypeRank(t grid.JobType) int {
	switch t {
	case grid.JobTypeFast:
		return 0
	case grid.JobTypeDefault:
		return 1
	case grid.JobTypeBatch:
		return 2
	default:
		return 3
	}
}

func (s *priorityQueue) NextWorkUnit(candidates []grid.QueuedUnit, nodeType grid.JobType) (grid.QueuedUnit, bool) {
	var best grid.QueuedUnit
	found := false
	for _, c := range candidates {
		if !found {
			best, found = c, true
			continue
		}
		rc, rb := jobTypeRank(c.Job.JobType), jobTypeRank(best.Job.JobType)
		if rc < rb {
			best = c
			continue
		}
		if rc == rb {
			if c.Job.Deadline < best.Job.Deadline {
				best = c
				continue
			}
			if c.Job.Deadline == best.Job.Deadline && c.Unit.WorkUnitID < best.Unit.WorkUnitID {
				best = c
			}
		}
	}
	return best, found
}
