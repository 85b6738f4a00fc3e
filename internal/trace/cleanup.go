package trace

import (
	"log"
	"runtime"
)

// Close ends the session. If the target is still alive it is detached so
// that it keeps running untraced. Close is safe to call more than once.
func (s *Session) Close() error {
	if s == nil || !s.attached {
		return nil
	}
	s.attached = false
	defer runtime.UnlockOSThread()

	if s.exited {
		log.Printf("[TRACE] Session %s closed", s.ID)
		return nil
	}

	if err := s.tracer.Detach(s.Pid); err != nil {
		log.Printf("[TRACE] Warning: failed to detach from pid %d: %v", s.Pid, err)
		return newError(ErrDetach, "ptrace detach", s.Pid, err)
	}
	log.Printf("[TRACE] Session %s: detached from pid %d", s.ID, s.Pid)
	return nil
}
