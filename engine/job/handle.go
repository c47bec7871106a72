package job

// Handle represents pending work that later operations can depend on without blocking.
// The zero Handle is already complete.
type Handle struct {
	done chan struct{}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// newPending returns an incomplete Handle and the function that completes it.
// The completion function must be called exactly once.
func newPending() (Handle, func()) {
	c := make(chan struct{})
	return Handle{done: c}, func() { close(c) }
}

// Done returns a channel that is closed once the work represented by the handle has finished.
//
// Returns:
//   - <-chan struct{}: the completion channel
func (h Handle) Done() <-chan struct{} {
	if h.done == nil {
		return closedChan
	}
	return h.done
}

// IsCompleted reports whether the work has finished, without blocking.
//
// Returns:
//   - bool: true if the work is complete
func (h Handle) IsCompleted() bool {
	select {
	case <-h.Done():
		return true
	default:
		return false
	}
}

// Complete blocks the calling goroutine until the work has finished.
func (h Handle) Complete() {
	<-h.Done()
}

// Combine returns a Handle that completes once every handle in handles has completed.
// Already complete handles are dropped, so combining nothing (or only finished work)
// yields a complete Handle.
//
// Parameters:
//   - handles: the handles to join
//
// Returns:
//   - Handle: the joined handle
func Combine(handles ...Handle) Handle {
	pending := make([]Handle, 0, len(handles))
	for _, h := range handles {
		if !h.IsCompleted() {
			pending = append(pending, h)
		}
	}

	switch len(pending) {
	case 0:
		return Handle{}
	case 1:
		return pending[0]
	}

	joined, finish := newPending()
	go func() {
		for _, h := range pending {
			<-h.done
		}
		finish()
	}()
	return joined
}
