package grid

import (
	"testing"
	"time"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func futureDeadline(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(jobDeadlineLayout)
}

func testRegistry(t *testing.T) *NodeRegistry {
	t.Helper()
	return NewNodeRegistryWithConfig(RegistryConfig{
		NodeTimeoutSeconds: 60,
		Queues: map[JobType]*TypedQueue{
			JobTypeDefault: {TargetProportion: 0.5, MaxWallTime: 7 * 24 * 3600},
			JobTypeBatch:   {TargetProportion: 0.3, MaxWallTime: -1},
			JobTypeFast:    {TargetProportion: 0.2, MaxWallTime: 3600},
		},
	})
}

func TestNewJob_RejectsUnknownJobType(t *testing.T) {
	reg := testRegistry(t)
	_, err := newJob(0, t.TempDir(), reg, NewJobParams{
		JobType:  "NOPE",
		WallTime: "00:00:01:00",
		Deadline: futureDeadline(time.Hour),
	})
	require.Error(t, err)
	var ge *gridErrors.GridError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, gridErrors.KindInvalidJobType, ge.Kind)
}

func TestNewJob_RejectsNegativeBudget(t *testing.T) {
	reg := testRegistry(t)
	_, err := newJob(0, t.TempDir(), reg, NewJobParams{
		JobType:  string(JobTypeDefault),
		WallTime: "00:00:01:00",
		Deadline: futureDeadline(time.Hour),
		Budget:   -1,
	})
	require.Error(t, err)
	var ge *gridErrors.GridError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, gridErrors.KindInvalidJobBudget, ge.Kind)
}

func TestNewJob_RejectsMalformedWallTime(t *testing.T) {
	reg := testRegistry(t)
	_, err := newJob(0, t.TempDir(), reg, NewJobParams{
		JobType:  string(JobTypeDefault),
		WallTime: "not-a-duration",
		Deadline: futureDeadline(time.Hour),
	})
	require.Error(t, err)
}

func TestNewJob_RejectsMalformedDeadline(t *testing.T) {
	reg := testRegistry(t)
	_, err := newJob(0, t.TempDir(), reg, NewJobParams{
		JobType:  string(JobTypeDefault),
		WallTime: "00:00:01:00",
		Deadline: "not-a-date",
	})
	require.Error(t, err)
	var ge *gridErrors.GridError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, gridErrors.KindInvalidJobDeadlineFormat, ge.Kind)
}

func TestNewJob_RejectsPastDeadline(t *testing.T) {
	reg := testRegistry(t)
	_, err := newJob(0, t.TempDir(), reg, NewJobParams{
		JobType:  string(JobTypeDefault),
		WallTime: "00:00:01:00",
		Deadline: futureDeadline(-time.Hour),
	})
	require.Error(t, err)
	var ge *gridErrors.GridError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, gridErrors.KindInvalidJobDeadline, ge.Kind)
}

func TestNewJob_RejectsUnreachableDeadline(t *testing.T) {
	reg := testRegistry(t)
	_, err := newJob(0, t.TempDir(), reg, NewJobParams{
		JobType:  string(JobTypeDefault),
		WallTime: "01:00:00:00",
		Deadline: futureDeadline(time.Minute),
	})
	require.Error(t, err)
}

func TestNewJob_RejectsWallTimeOverQueueMax(t *testing.T) {
	reg := testRegistry(t)
	_, err := newJob(0, t.TempDir(), reg, NewJobParams{
		JobType:  string(JobTypeFast),
		WallTime: "02:00:00:00",
		Deadline: futureDeadline(72 * time.Hour),
	})
	require.Error(t, err)
}

func TestNewJob_BuildsNewJobWithFilesAndExecutable(t *testing.T) {
	reg := testRegistry(t)
	job, err := newJob(3, "/jobs", reg, NewJobParams{
		Name:       "demo",
		JobType:    string(JobTypeDefault),
		WallTime:   "00:00:01:00",
		Deadline:   futureDeadline(time.Hour),
		Budget:     10,
		Files:      []string{"a.txt", "b.txt"},
		Executable: "run.sh",
	})
	require.NoError(t, err)
	assert.Equal(t, JobNew, job.Status)
	assert.Equal(t, "run.sh", job.Executable)
	require.Len(t, job.WorkUnits, 2)
	assert.Equal(t, 0, job.WorkUnits[0].WorkUnitID)
	assert.Equal(t, 1, job.WorkUnits[1].WorkUnitID)
	assert.Equal(t, "/jobs/3", job.Root())
}

func TestJobAddFile_RejectsOnceNotNew(t *testing.T) {
	job := &Job{Status: JobReady}
	err := job.AddFile("late.txt")
	require.Error(t, err)
	var ge *gridErrors.GridError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, gridErrors.KindInvalidTransition, ge.Kind)
}

func TestJobAddFile_AppendsPendingWorkUnit(t *testing.T) {
	job := &Job{Status: JobNew}
	require.NoError(t, job.AddFile("a.txt"))
	require.Len(t, job.WorkUnits, 1)
	assert.Equal(t, WorkUnitPending, job.WorkUnits[0].Status)
	assert.Equal(t, "a.txt", job.WorkUnits[0].Filename)
}

func TestJobAddExecutable_RejectsOnceNotNew(t *testing.T) {
	job := &Job{Status: JobFinished}
	err := job.AddExecutable("run.sh")
	require.Error(t, err)
}

func TestJobReady_ZeroFilesFinishesImmediately(t *testing.T) {
	job := &Job{Status: JobNew}
	require.NoError(t, job.ready())
	assert.Equal(t, JobFinished, job.Status)
}

func TestJobReady_QueuesEveryWorkUnit(t *testing.T) {
	job := &Job{Status: JobNew}
	require.NoError(t, job.AddFile("a.txt"))
	require.NoError(t, job.ready())
	assert.Equal(t, JobReady, job.Status)
	assert.Equal(t, WorkUnitQueued, job.WorkUnits[0].Status)
}

func TestJobReady_RejectsWhenNotNew(t *testing.T) {
	job := &Job{Status: JobReady}
	err := job.ready()
	require.Error(t, err)
}

func TestJobKill_MarksJobAndUnitsKilled(t *testing.T) {
	job := &Job{Status: JobNew}
	require.NoError(t, job.AddFile("a.txt"))
	require.NoError(t, job.ready())
	job.kill("cancelled")
	assert.Equal(t, JobKilled, job.Status)
	assert.Equal(t, "cancelled", job.KillMsg)
	assert.Equal(t, WorkUnitKilled, job.WorkUnits[0].Status)
}

func TestJobKill_NoopOnceTerminal(t *testing.T) {
	job := &Job{Status: JobFinished}
	job.kill("too late")
	assert.Equal(t, JobFinished, job.Status)
	assert.Empty(t, job.KillMsg)
}

func TestFinishWorkUnit_UnknownIDIsError(t *testing.T) {
	job := &Job{Status: JobReady}
	err := job.finishWorkUnit(99)
	require.Error(t, err)
}

func TestRefreshStatus_AllFinishedMarksJobFinished(t *testing.T) {
	job := &Job{Status: JobRunning, WorkUnits: []*WorkUnit{
		{WorkUnitID: 0, Status: WorkUnitFinished},
		{WorkUnitID: 1, Status: WorkUnitFinished},
	}}
	job.refreshStatus()
	assert.Equal(t, JobFinished, job.Status)
}

func TestRefreshStatus_AnyRunningMarksJobRunning(t *testing.T) {
	job := &Job{Status: JobReady, WorkUnits: []*WorkUnit{
		{WorkUnitID: 0, Status: WorkUnitRunning},
		{WorkUnitID: 1, Status: WorkUnitQueued},
	}}
	job.refreshStatus()
	assert.Equal(t, JobRunning, job.Status)
}

func TestRefreshStatus_NeverOverwritesKilled(t *testing.T) {
	job := &Job{Status: JobKilled, WorkUnits: []*WorkUnit{
		{WorkUnitID: 0, Status: WorkUnitFinished},
	}}
	job.refreshStatus()
	assert.Equal(t, JobKilled, job.Status)
}

func TestJobPaths(t *testing.T) {
	job := &Job{Executable: "run.sh"}
	job.SetRoot("/jobs/7")
	assert.Equal(t, "/jobs/7/files/a.txt", job.InputPath("a.txt"))
	assert.Equal(t, "/jobs/7/output/0.o", job.OutputPath("0.o"))
	assert.Equal(t, "/jobs/7/executable/run.sh", job.ExecutablePath())
	assert.Equal(t, "/jobs/7/output/0.o", job.CreateFilePath("0.o"))
}
