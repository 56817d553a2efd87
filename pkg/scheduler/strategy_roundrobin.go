package scheduler

import (
	"sort"
	"sync"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
)

// roundRobin cycles through the jobs that currently have QUEUED work
// units, handing out one unit per job per turn before moving to the
// next job in ascending job-id order, so no job starves behind a
// large earlier submission.
type roundRobin struct {
	mu        sync.Mutex
	lastJobID int
	hasLast   bool
}

func newRoundRobin() *roundRobin {
	return &roundRobin{}
}

func (s *roundRobin) Name() string { return "RoundRobin" }

func (s *roundRobin) NextWorkUnit(candidates []grid.QueuedUnit, nodeType grid.JobType) (grid.QueuedUnit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidates) == 0 {
		return grid.QueuedUnit{}, false
	}

	jobIDs := distinctSortedJobIDs(candidates)

	start := 0
	if s.hasLast {
		for i, id := range jobIDs {
			if id > s.lastJobID {
				start = i
				break
			}
		}
	}

	for i := 0; i < len(jobIDs); i++ {
		jobID := jobIDs[(start+i)%len(jobIDs)]
		unit, ok := lowestUnitIDForJob(candidates, jobID)
		if ok {
			s.lastJobID = jobID
			s.hasLast = true
			return unit, true
		}
	}
	return grid.QueuedUnit{}, false
}

func distinctSortedJobIDs(candidates []grid.QueuedUnit) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, c := range candidates {
		if _, ok := seen[c.Job.JobID]; !ok {
			seen[c.Job.JobID] = struct{}{}
			ids = append(ids, c.Job.JobID)
		}
	}
	sort.Ints(ids)
	return ids
}

func lowestUnitIDForJob(candidates []grid.QueuedUnit, jobID int) (grid.QueuedUnit, bool) {
	var best grid.QueuedUnit
	found := false
	for _, c := range candidates {
		if c.Job.JobID != jobID {
			continue
		}
		if !found || c.Unit.WorkUnitID < best.Unit.WorkUnitID {
			best = c
			found = true
		}
	}
	return best, found
}
