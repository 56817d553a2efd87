package scheduler

import (
	"strings"

	gridErrors "github.com/sritchie73/bad-boyz-cluster/pkg/errors"
	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
)

// validNames is the fixed set of strategy names the coordinator will
// construct by name; the `PUT /scheduler` and `grid serve` strategy
// selection surface. Order matters only for the error message clients
// see when they request an unknown one.
var validNames = []string{"RoundRobin", "FCFS", "Deadline", "DeadlineCost", "PriorityQueue"}

// NewStrategy constructs a fresh Strategy instance by name. Each call
// returns brand-new bookkeeping (e.g. RoundRobin's per-job cursor),
// never a shared singleton, so replacing the active scheduler always
// starts that strategy from a clean slate.
func NewStrategy(name string) (grid.Strategy, error) {
	for _, valid := range validNames {
		if strings.EqualFold(name, valid) {
			switch valid {
			case "RoundRobin":
				return newRoundRobin(), nil
			case "FCFS":
				return newFCFS(), nil
			case "Deadline":
				return newDeadline(), nil
			case "DeadlineCost":
				return newDeadlineCost(), nil
			case "PriorityQueue":
				return newPriorityQueue(), nil
			}
		}
	}
	return nil, gridErrors.InvalidScheduler(name, validNames)
}
