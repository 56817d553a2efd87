package scheduler

import (
	"time"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
)

// deadlineCost prefers, among the jobs that can still meet their
// deadline given their requested wall time, the one whose wall time
// best fits its remaining budget. Ordering weights deadline over cost,
// so a deadline-missing job is never preferred over one still on track
// regardless of cost fit.
//
// The strategy interface only carries the node's type, not its
// per-unit-time cost, so "expected cost" here is approximated by the
// job's own requested wall_time against its budget rather than an
// actual node-cost multiplication.
type deadlineCost struct{}

func newDeadlineCost() *deadlineCost { return &deadlineCost{} }

func (s *deadlineCost) Name() string { return "DeadlineCost" }

func (s *deadlineCost) NextWorkUnit(candidates []grid.QueuedUnit, nodeType grid.JobType) (grid.QueuedUnit, bool) {
	if len(candidates) == 0 {
		return grid.QueuedUnit{}, false
	}

	now := time.Now().Unix()
	best := candidates[0]
	bestScore := deadlineCostScore(best, now)

	for _, c := range candidates[1:] {
		score := deadlineCostScore(c, now)
		if score.less(bestScore) {
			best = c
			bestScore = score
		}
	}
	return lowestUnitIDForJob(candidates, best.Job.JobID)
}

type dcScore struct {
	missesDeadline bool
	deadline       int64
	costFit        int
	unitID         int
}

func (a dcScore) less(b dcScore) bool {
	if a.missesDeadline != b.missesDeadline {
		return !a.missesDeadline // jobs still on track always beat ones that will miss
	}
	if a.deadline != b.deadline {
		return a.deadline < b.deadline
	}
	if a.costFit != b.costFit {
		return a.costFit < b.costFit
	}
	return a.unitID < b.unitID
}

func deadlineCostScore(c grid.QueuedUnit, now int64) dcScore {
	remaining := c.Job.Deadline - now
	costFit := c.Job.Budget - c.Job.WallTime
	if costFit < 0 {
		costFit = -costFit
	}
	return dcScore{
		missesDeadline: int64(c.Job.WallTime) > remaining,
		deadline:       c.Job.Deadline,
		costFit:        costFit,
		unitID:         c.Unit.WorkUnitID,
	}
}
