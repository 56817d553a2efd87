package scheduler

import "github.com/sritchie73/bad-boyz-cluster/pkg/grid"

// deadline is earliest-deadline-first across jobs, lowest work_unit_id
// within a job.
type deadline struct{}

func newDeadline() *deadline { return &deadline{} }

func (s *deadline) Name() string { return "Deadline" }

func (s *deadline) NextWorkUnit(candidates []grid.QueuedUnit, nodeType grid.JobType) (grid.QueuedUnit, bool) {
	var best grid.QueuedUnit
	found := false
	for _, c := range candidates {
		if !found {
			best, found = c, true
			continue
		}
		if c.Job.Deadline < best.Job.Deadline {
			best = c
			continue
		}
		if c.Job.Deadline == best.Job.Deadline && c.Unit.WorkUnitID < best.Unit.WorkUnitID {
			best = c
		}
	}
	return best, found
}
