// Package errors defines the grid's error taxonomy. Handlers in pkg/api
// map these to HTTP status codes with errors.As; nothing outside this
// package needs to know the wire status a given kind maps to.
package errors

import "fmt"

// Kind identifies the category of a grid error.
type Kind string

const (
	KindInvalidScheduler         Kind = "invalid_scheduler"
	KindInvalidJobType           Kind = "invalid_job_type"
	KindInvalidJobBudget         Kind = "invalid_job_budget"
	KindInvalidWallTimeFormat    Kind = "invalid_wall_time_format"
	KindInvalidJobDeadlineFormat Kind = "invalid_job_deadline_format"
	KindInvalidJobDeadline       Kind = "invalid_job_deadline"
	KindInvalidJobStatus         Kind = "invalid_job_status"
	KindInvalidNodeType          Kind = "invalid_node_type"
	KindJobNotFound              Kind = "job_not_found"
	KindNodeNotFound             Kind = "node_not_found"
	KindNodeUnavailable          Kind = "node_unavailable"
	KindInvalidTransition        Kind = "invalid_transition"
)

// GridError is the common error type for all grid-domain failures. Each
// Kind is constructed through its matching helper below rather than
// built by hand, so call sites read as intent ("ErrJobNotFound(id)")
// instead of string formatting.
type GridError struct {
	Kind    Kind
	Message string
}

func (e *GridError) Error() string {
	return e.Message
}

func new_(kind Kind, format string, args ...interface{}) *GridError {
	return &GridError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidScheduler(name string, valid []string) *GridError {
	return new_(KindInvalidScheduler, "Scheduler %s not found. Valid schedulers: %v", name, valid)
}

func InvalidJobType(jobType string, valid []string) *GridError {
	return new_(KindInvalidJobType, "Invalid Job Type specified: %s. Valid job types are: %v.", jobType, valid)
}

func InvalidJobTypeWallTime(jobType, wallTime, maxWallTime string) *GridError {
	return new_(KindInvalidJobType, "Invalid Job Type specified: %s. Wall time %s is too large. Wall time must be at most %s for job type %s.", jobType, wallTime, maxWallTime, jobType)
}

func InvalidJobBudget(budget interface{}) *GridError {
	return new_(KindInvalidJobBudget, "Invalid Budget specified: %v. Format: amount in cents as a whole number, >= 0.", budget)
}

func InvalidWallTimeFormat(wallTime string) *GridError {
	return new_(KindInvalidWallTimeFormat, "Invalid Wall Time specified: %s. Format: DD:HH:MM:SS.", wallTime)
}

func InvalidJobDeadlineFormat(deadline string) *GridError {
	return new_(KindInvalidJobDeadlineFormat, "Invalid Deadline specified: %s. Format: YYYY-MM-DD HH:MM:SS.", deadline)
}

func InvalidJobDeadlinePast(deadline string) *GridError {
	return new_(KindInvalidJobDeadline, "Invalid Deadline specified: %s. Deadline specified is in the past.", deadline)
}

func InvalidJobDeadlineUnreachable() *GridError {
	return new_(KindInvalidJobDeadline, "Current time plus wall time is later than the specified deadline. Please adjust either and resubmit.")
}

func InvalidJobStatus(status string) *GridError {
	return new_(KindInvalidJobStatus, "The job status %s is not valid.", status)
}

func InvalidNodeType(nodeType string) *GridError {
	return new_(KindInvalidNodeType, "%s is not a valid priority queue type.", nodeType)
}

func JobNotFound(id interface{}) *GridError {
	return new_(KindJobNotFound, "There is no job with id: %v", id)
}

func NodeNotFound(id interface{}) *GridError {
	return new_(KindNodeNotFound, "There is no node with id: %v", id)
}

func NodeUnavailable(nodeURL string) *GridError {
	return new_(KindNodeUnavailable, "The node at %s is unavailable.", nodeURL)
}

func InvalidTransition(from, to, what string) *GridError {
	return new_(KindInvalidTransition, "Invalid transition for %s: %s -> %s", what, from, to)
}
