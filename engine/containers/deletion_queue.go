package containers

// DeletionQueue records teardown actions as they are created and runs them in
// reverse order on Flush. Actions capture the handles they release by value.
//
// A DeletionQueue is owned by a single goroutine and is not safe for
// concurrent use.
type DeletionQueue struct {
	deletors []func()
}

// Push registers a cleanup action.
func (dq *DeletionQueue) Push(fn func()) {
	dq.deletors = append(dq.deletors, fn)
}

// Flush executes all registered actions, last registered first, and empties
// the queue. An action pushed while flushing runs before the remaining ones.
// Flushing an empty queue does nothing.
func (dq *DeletionQueue) Flush() {
	for n := len(dq.deletors); n > 0; n = len(dq.deletors) {
		fn := dq.deletors[n-1]
		dq.deletors[n-1] = nil
		dq.deletors = dq.deletors[:n-1]
		fn()
	}
}

// Len returns the number of pending actions.
func (dq *DeletionQueue) Len() int {
	return len(dq.deletors)
}
