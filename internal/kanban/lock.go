package kanban

import "sync"

// Priority renumbering reads then rewrites a whole bucket, so concurrent
// moves (or a move racing the normalization pass) on one project can
// interleave and corrupt the dense numbering. All mutating entry points
// serialize per project through this table.
var (
	locksMu      sync.Mutex
	projectLocks = make(map[string]*sync.Mutex)
)

// lockProject acquires the project's mutex and returns its release func.
func lockProject(projectID string) func() {
	locksMu.Lock()
	l, ok := projectLocks[projectID]
	if !ok {
		l = &sync.Mutex{}
		projectLocks[projectID] = l
	}
	locksMu.Unlock()

	l.Lock()
	return l.Unlock
}
