package grid

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
	"github.com/sritchie73/bad-boyz-cluster/pkg/walltime"
)

const jobDeadlineLayout = "2006-01-02 15:04:05"

// NewJobParams is the raw, unvalidated input to job creation; exactly
// the fields a client submits with a job.
type NewJobParams struct {
	Name       string
	Flags      string
	WallTime   string
	Deadline   string
	Budget     int
	JobType    string
	Executable string
	Files      []string
}

// newJob validates params against the registry's typed-queue
// configuration and constructs a Job in the NEW state. Validation
// order is fixed, since clients depend on which error comes back first
// when several fields are simultaneously bad: job type, then budget,
// then wall_time format, then deadline format, then
// deadline-in-the-past, then deadline-unreachable-given-wall-time,
// then wall_time-too-long-for-job-type.
func newJob(jobID int, jobsRoot string, reg *NodeRegistry, p NewJobParams) (*Job, error) {
	jobType := JobType(p.JobType)
	queue, ok := reg.QueueConfig(jobType)
	if !ok {
		return nil, gridErrors.InvalidJobType(p.JobType, reg.ValidJobTypes())
	}

	if p.Budget < 0 {
		return nil, gridErrors.InvalidJobBudget(p.Budget)
	}

	wt, err := walltime.Parse(p.WallTime)
	if err != nil {
		return nil, err
	}

	deadlineTime, err := time.Parse(jobDeadlineLayout, p.Deadline)
	if err != nil {
		return nil, gridErrors.InvalidJobDeadlineFormat(p.Deadline)
	}

	createdTS := now()
	if deadlineTime.Unix() < createdTS {
		return nil, gridErrors.InvalidJobDeadlinePast(p.Deadline)
	}
	if createdTS+int64(wt.TotalSeconds()) > deadlineTime.Unix() {
		return nil, gridErrors.InvalidJobDeadlineUnreachable()
	}

	if queue.MaxWallTime >= 0 && wt.TotalSeconds() > queue.MaxWallTime {
		return nil, gridErrors.InvalidJobTypeWallTime(p.JobType, wt.String(), walltime.FromSeconds(queue.MaxWallTime).String())
	}

	job := &Job{
		JobID:     jobID,
		Name:      p.Name,
		Flags:     p.Flags,
		WallTime:  wt.TotalSeconds(),
		Deadline:  deadlineTime.Unix(),
		Budget:    p.Budget,
		JobType:   jobType,
		Status:    JobNew,
		CreatedTS: createdTS,
		root:      filepath.Join(jobsRoot, strconv.Itoa(jobID)),
	}

	for i, f := range p.Files {
		job.addFile(i, f)
	}
	if p.Executable != "" {
		job.addExecutable(p.Executable)
	}

	return job, nil
}

// addFile registers one input file as a PENDING work unit. workUnitID
// is the file's position in the submission; every input file maps to
// exactly one work unit.
func (j *Job) addFile(workUnitID int, filename string) {
	j.Files = append(j.Files, filename)
	j.WorkUnits = append(j.WorkUnits, newWorkUnit(j.JobID, workUnitID, filename))
}

// addExecutable records the job's driver program, stored separately
// from the per-file work units it will be invoked against.
func (j *Job) addExecutable(path string) {
	j.Executable = path
}

// AddFile registers one newly uploaded input file against a job still
// being assembled by its client, creating its PENDING work unit.
// Rejects once the job has left NEW.
func (j *Job) AddFile(filename string) error {
	if j.Status != JobNew {
		return gridErrors.InvalidTransition(string(j.Status), string(j.Status), "job file upload")
	}
	j.addFile(len(j.WorkUnits), filename)
	return nil
}

// AddExecutable records the job's uploaded driver program. Rejects
// once the job has left NEW.
func (j *Job) AddExecutable(filename string) error {
	if j.Status != JobNew {
		return gridErrors.InvalidTransition(string(j.Status), string(j.Status), "job executable upload")
	}
	j.addExecutable(filename)
	return nil
}

// ready transitions NEW -> READY, queueing every work unit. A job with
// no input files has nothing to run, so it derives straight to
// FINISHED.
func (j *Job) ready() error {
	if j.Status != JobNew {
		return gridErrors.InvalidTransition(string(j.Status), string(JobReady), "job")
	}
	for _, u := range j.WorkUnits {
		u.Status = WorkUnitQueued
	}
	j.Status = JobReady
	j.refreshStatus()
	return nil
}

// kill marks the job and every non-terminal work unit KILLED, recording
// msg as the reason surfaced back to clients.
func (j *Job) kill(msg string) {
	if j.Status == JobFinished || j.Status == JobKilled {
		return
	}
	j.KillMsg = msg
	j.Status = JobKilled
	for _, u := range j.WorkUnits {
		u.kill()
	}
}

// finishWorkUnit marks one work unit FINISHED and re-derives the job's
// aggregate status.
func (j *Job) finishWorkUnit(workUnitID int) error {
	u := j.findWorkUnit(workUnitID)
	if u == nil {
		return fmt.Errorf("job %d has no work unit %d", j.JobID, workUnitID)
	}
	if err := u.finish(); err != nil {
		return err
	}
	j.refreshStatus()
	return nil
}

func (j *Job) findWorkUnit(workUnitID int) *WorkUnit {
	for _, u := range j.WorkUnits {
		if u.WorkUnitID == workUnitID {
			return u
		}
	}
	return nil
}

// refreshStatus re-derives Status from the current work unit states:
// RUNNING if any unit is RUNNING, FINISHED if every unit is FINISHED,
// otherwise the job stays at its current (READY/PENDING) status. A
// job already KILLED never has its status overwritten here.
func (j *Job) refreshStatus() {
	if j.Status == JobKilled {
		return
	}

	allFinished := true
	anyRunning := false
	for _, u := range j.WorkUnits {
		switch u.Status {
		case WorkUnitRunning:
			anyRunning = true
			allFinished = false
		case WorkUnitFinished:
		default:
			allFinished = false
		}
	}

	switch {
	case allFinished:
		j.Status = JobFinished
	case anyRunning:
		j.Status = JobRunning
	}
}

// InputPath returns the on-disk path of an input file uploaded for
// this job.
func (j *Job) InputPath(filename string) string {
	return filepath.Join(j.root, "files", filename)
}

// OutputPath returns the on-disk path a work unit's output file is
// expected at once its program has finished.
func (j *Job) OutputPath(filename string) string {
	return filepath.Join(j.root, "output", filename)
}

// ExecutablePath returns the on-disk path of the job's driver program.
func (j *Job) ExecutablePath() string {
	return filepath.Join(j.root, "executable", j.Executable)
}

// ExecutableFilePath returns the on-disk path an uploaded executable
// named filename would live at. Unlike ExecutablePath, it doesn't read
// j.Executable, so the upload handler can resolve the destination
// before AddExecutable has recorded the name; it writes the bytes and
// records the filename in the same request, and doing the latter first
// would make the former a no-op path.
func (j *Job) ExecutableFilePath(filename string) string {
	return filepath.Join(j.root, "executable", filename)
}

// CreateFilePath returns the path under the job's output directory that
// output named filename is written to. It does not create the output
// directory or any other parent directory.
func (j *Job) CreateFilePath(filename string) string {
	return filepath.Join(j.root, "output", filename)
}

// Root exposes the job's on-disk directory.
func (j *Job) Root() string {
	return j.root
}

// SetRoot replaces the job's on-disk directory root, which newJob
// otherwise derives from the jobs root and the job id.
func (j *Job) SetRoot(root string) {
	j.root = root
}
