package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrAttach means the target is missing, not ours to trace, or already traced.
	ErrAttach = errors.New("attach failed")
	// ErrSetOptions means PTRACE_SETOPTIONS was rejected.
	ErrSetOptions = errors.New("option config failed")
	// ErrGetRegs means the target's registers could not be read at a stop.
	ErrGetRegs = errors.New("register read failed")
	// ErrResume means the target could not be restarted.
	ErrResume = errors.New("resume failed")
	// ErrOutputWrite means a captured buffer could not be written locally.
	ErrOutputWrite = errors.New("output write failed")
	// ErrMemoryRead means a word of a write buffer was unreadable in strict mode.
	ErrMemoryRead = errors.New("memory read failed")
	// ErrDetach means the target could not be released on Close.
	ErrDetach = errors.New("detach failed")
)

// Error is a fatal tracing error. Kind is one of the Err* sentinels above
// and is matched by errors.Is alongside the underlying cause.
type Error struct {
	Kind error
	Op   string
	Pid  int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s %d (%v)", e.Op, e.Pid, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, pid int, err error) *Error {
	return &Error{Kind: kind, Op: op, Pid: pid, Err: err}
}
