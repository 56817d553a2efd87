package scheduler

import "github.com/sritchie73/bad-boyz-cluster/pkg/grid"

// fcfs always picks the QUEUED unit belonging to the oldest job
// (smallest CreatedTS), breaking ties by the lowest work_unit_id.
type fcfs struct{}

func newFCFS() *fcfs { return &fcfs{} }

func (s *fcfs) Name() string { return "FCFS" }

func (s *fcfs) NextWorkUnit(candidates []grid.QueuedUnit, nodeType grid.JobType) (grid.QueuedUnit, bool) {
	var best grid.QueuedUnit
	found := false
	for _, c := range candidates {
		if !found {
			best, found = c, true
			continue
		}
		if c.Job.CreatedTS < best.Job.CreatedTS {
			best = c
			continue
		}
		if c.Job.CreatedTS == best.Job.CreatedTS && c.Unit.WorkUnitID < best.Unit.WorkUnitID {
			best = c
		}
	}
	return best, found
}
