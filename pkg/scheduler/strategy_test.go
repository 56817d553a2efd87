package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
)

func qu(jobID, workUnitID int, createdTS, deadline int64, wallTime, budget int, jobType grid.JobType) grid.QueuedUnit {
	return grid.QueuedUnit{
		Job: &grid.Job{
			JobID:     jobID,
			CreatedTS: createdTS,
			Deadline:  deadline,
			WallTime:  wallTime,
			Budget:    budget,
			JobType:   jobType,
		},
		Unit: &grid.WorkUnit{JobID: jobID, WorkUnitID: workUnitID},
	}
}

func TestNewStrategy_Valid(t *testing.T) {
	for _, name := range validNames {
		s, err := NewStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
}

func TestNewStrategy_CaseInsensitive(t *testing.T) {
	s, err := NewStrategy("fcfs")
	require.NoError(t, err)
	assert.Equal(t, "FCFS", s.Name())
}

func TestNewStrategy_Unknown(t *testing.T) {
	_, err := NewStrategy("Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nope")
}

func TestFCFS_PicksOldestJob(t *testing.T) {
	s := newFCFS()
	candidates := []grid.QueuedUnit{
		qu(2, 0, 200, 0, 0, 0, grid.JobTypeDefault),
		qu(1, 0, 100, 0, 0, 0, grid.JobTypeDefault),
		qu(3, 0, 300, 0, 0, 0, grid.JobTypeDefault),
	}
	picked, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 1, picked.Job.JobID)
}

func TestFCFS_TieBreaksOnUnitID(t *testing.T) {
	s := newFCFS()
	candidates := []grid.QueuedUnit{
		qu(1, 5, 100, 0, 0, 0, grid.JobTypeDefault),
		qu(1, 1, 100, 0, 0, 0, grid.JobTypeDefault),
	}
	picked, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 1, picked.Unit.WorkUnitID)
}

func TestFCFS_EmptyCandidates(t *testing.T) {
	s := newFCFS()
	_, ok := s.NextWorkUnit(nil, grid.JobTypeDefault)
	assert.False(t, ok)
}

func TestDeadline_EarliestFirst(t *testing.T) {
	s := newDeadline()
	candidates := []grid.QueuedUnit{
		qu(1, 0, 0, 2000, 0, 0, grid.JobTypeDefault),
		qu(2, 0, 0, 1000, 0, 0, grid.JobTypeDefault),
	}
	picked, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 2, picked.Job.JobID)
}

func TestPriorityQueue_FastBeatsDefaultBeatsBatch(t *testing.T) {
	s := newPriorityQueue()
	candidates := []grid.QueuedUnit{
		qu(1, 0, 0, 1000, 0, 0, grid.JobTypeBatch),
		qu(2, 0, 0, 1000, 0, 0, grid.JobTypeDefault),
		qu(3, 0, 0, 1000, 0, 0, grid.JobTypeFast),
	}
	picked, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 3, picked.Job.JobID)

	picked, ok = s.NextWorkUnit(candidates[:2], grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 2, picked.Job.JobID)
}

func TestPriorityQueue_TieBreaksOnDeadline(t *testing.T) {
	s := newPriorityQueue()
	candidates := []grid.QueuedUnit{
		qu(1, 0, 0, 2000, 0, 0, grid.JobTypeDefault),
		qu(2, 0, 0, 1000, 0, 0, grid.JobTypeDefault),
	}
	picked, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 2, picked.Job.JobID)
}

func TestDeadlineCost_PrefersJobStillOnTrack(t *testing.T) {
	s := newDeadlineCost()
	now := time.Now().Unix()
	candidates := []grid.QueuedUnit{
		// job 1 cannot meet its deadline: wall time exceeds remaining time
		qu(1, 0, 0, now+10, 1000, 1000, grid.JobTypeDefault),
		// job 2 can still meet its deadline
		qu(2, 0, 0, now+10000, 100, 100, grid.JobTypeDefault),
	}
	picked, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 2, picked.Job.JobID)
}

func TestDeadlineCost_AmongOnTrackPrefersDeadlineThenCostFit(t *testing.T) {
	s := newDeadlineCost()
	now := time.Now().Unix()
	candidates := []grid.QueuedUnit{
		qu(1, 0, 0, now+50000, 100, 100, grid.JobTypeDefault),
		qu(2, 0, 0, now+10000, 100, 50, grid.JobTypeDefault),
	}
	picked, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 2, picked.Job.JobID, "earlier deadline wins even though its cost fit is worse")
}

func TestRoundRobin_CyclesJobsInJobIDOrder(t *testing.T) {
	s := newRoundRobin()
	candidates := []grid.QueuedUnit{
		qu(1, 0, 0, 0, 0, 0, grid.JobTypeDefault),
		qu(2, 0, 0, 0, 0, 0, grid.JobTypeDefault),
		qu(3, 0, 0, 0, 0, 0, grid.JobTypeDefault),
	}

	first, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 1, first.Job.JobID)

	second, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 2, second.Job.JobID)

	third, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 3, third.Job.JobID)

	wrapped, ok := s.NextWorkUnit(candidates, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 1, wrapped.Job.JobID, "cursor wraps back to the lowest job id")
}

func TestRoundRobin_SkipsJobsThatDropOut(t *testing.T) {
	s := newRoundRobin()
	all := []grid.QueuedUnit{
		qu(1, 0, 0, 0, 0, 0, grid.JobTypeDefault),
		qu(2, 0, 0, 0, 0, 0, grid.JobTypeDefault),
	}
	first, ok := s.NextWorkUnit(all, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 1, first.Job.JobID)

	// job 1 has no more queued units this round
	onlyTwo := []grid.QueuedUnit{qu(2, 0, 0, 0, 0, 0, grid.JobTypeDefault)}
	next, ok := s.NextWorkUnit(onlyTwo, grid.JobTypeDefault)
	require.True(t, ok)
	assert.Equal(t, 2, next.Job.JobID)
}
