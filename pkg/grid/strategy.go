package grid

// QueuedUnit pairs a QUEUED WorkUnit with its owning Job, the minimal
// context a Strategy needs to pick what runs next without reaching
// back into Grid's maps itself.
type QueuedUnit struct {
	Job  *Job
	Unit *WorkUnit
}

// Strategy selects the next QUEUED work unit to hand to a free node of
// the given type. Implementations live in pkg/scheduler; the interface
// is declared here, the consumer side, so pkg/scheduler can depend on
// pkg/grid without grid depending back on it.
type Strategy interface {
	Name() string
	NextWorkUnit(candidates []QueuedUnit, nodeType JobType) (QueuedUnit, bool)
}

// FilterByType returns the subset of candidates whose job is of the
// given type, falling back to the full candidate set if none match;
// shared by every strategy so a node never sits idle just because its
// type has no matching queued job.
func FilterByType(candidates []QueuedUnit, nodeType JobType) []QueuedUnit {
	var matched []QueuedUnit
	for _, c := range candidates {
		if c.Job.JobType == nodeType {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return candidates
	}
	return matched
}
