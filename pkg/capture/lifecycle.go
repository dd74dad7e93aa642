package capture

// LoadState is the progress of the current page load.
type LoadState int

const (
	NotStarted LoadState = iota
	Loading
	Completed
)

func (s LoadState) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Loading:
		return "loading"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Lifecycle tracks load progress from engine events. It is owned by the
// controller loop and is not safe for concurrent use.
type Lifecycle struct {
	state LoadState
	ok    bool
}

// OnStart resets the lifecycle for a new load.
func (l *Lifecycle) OnStart() {
	l.state = Loading
	l.ok = false
}

// OnFinish records the result of the current load. It returns true only for
// the first finish of a load; repeats are ignored until the next OnStart.
func (l *Lifecycle) OnFinish(ok bool) bool {
	if l.state == Completed {
		return false
	}
	l.state = Completed
	l.ok = ok
	return true
}

// State returns the current load state.
func (l *Lifecycle) State() LoadState {
	return l.state
}

// LastSuccess returns the success flag of a completed load, or false while
// the page is still loading.
func (l *Lifecycle) LastSuccess() bool {
	return l.state == Completed && l.ok
}
