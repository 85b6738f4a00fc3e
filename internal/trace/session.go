package trace

import (
	"log"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// SyscallWrite is the system call whose buffers are forwarded.
const SyscallWrite = unix.SYS_WRITE

// Forwarder receives the buffers the target writes.
type Forwarder interface {
	// Observes reports whether writes to the target descriptor fd should
	// be captured at all.
	Observes(fd uint64) bool
	// Forward delivers one captured buffer.
	Forward(fd uint64, data []byte) error
}

// Options tunes a Session.
type Options struct {
	// StrictMemory aborts the session when a word of a write buffer
	// cannot be read, instead of dropping that word.
	StrictMemory bool
}

// Session is one tracing relationship with one target process. It is
// owned by a single goroutine, locked to its OS thread from Start until
// Close.
type Session struct {
	ID  string
	Pid int

	tracer     Tracer
	forwarder  Forwarder
	memory     *MemoryReader
	classifier Classifier

	attached bool
	exited   bool

	// pending is a signal whose delivery stop was reported before the
	// attach SIGSTOP; it is injected on the first resume. While
	// awaitingAttachStop is set the next SIGSTOP stop is the attach stop
	// and is swallowed.
	pending            syscall.Signal
	awaitingAttachStop bool
}

// Start attaches to pid and enables syscall-stop tagging. On success the
// target is stopped and waits for Run. The calling goroutine stays
// locked to its OS thread until Close.
func Start(pid int, tracer Tracer, forwarder Forwarder, opts Options) (*Session, error) {
	runtime.LockOSThread()

	s := &Session{
		ID:        uuid.New().String(),
		Pid:       pid,
		tracer:    tracer,
		forwarder: forwarder,
	}
	s.memory = &MemoryReader{
		Words:  tracer,
		Pid:    pid,
		Strict: opts.StrictMemory,
		OnDrop: func(addr uintptr, err error) {
			log.Printf("[TRACE] Session %s: dropped unreadable word at %#x: %v", s.ID, addr, err)
		},
	}

	if err := tracer.Attach(pid); err != nil {
		runtime.UnlockOSThread()
		return nil, newError(ErrAttach, "ptrace attach", pid, err)
	}
	s.attached = true

	stop, err := tracer.Wait(pid)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, newError(ErrAttach, "wait for attach stop of", pid, err)
	}
	if stop.Kind == StopExited || stop.Kind == StopKilled {
		runtime.UnlockOSThread()
		return nil, newError(ErrAttach, "ptrace attach", pid, unix.ESRCH)
	}
	if stop.Kind == StopSignal && stop.Signal != unix.SIGSTOP {
		log.Printf("[TRACE] Session %s: %v arrived before the attach stop", s.ID, stop.Signal)
		s.pending = stop.Signal
		s.awaitingAttachStop = true
	}

	if err := tracer.SetOptions(pid, unix.PTRACE_O_TRACESYSGOOD); err != nil {
		s.Close()
		return nil, newError(ErrSetOptions, "ptrace setoptions", pid, err)
	}

	log.Printf("[TRACE] Session %s: attached to pid %d", s.ID, pid)
	return s, nil
}

// Run resumes the target and relays its writes until it exits. Target
// exit and a failed wait both end the session without error; every other
// ptrace failure, and a failed write to the local streams, is returned.
func (s *Session) Run() error {
	if err := s.resume(s.pending); err != nil {
		return err
	}
	s.pending = 0

	for {
		stop, err := s.tracer.Wait(s.Pid)
		if err != nil {
			log.Printf("[TRACE] Session %s: wait failed, ending session: %v", s.ID, err)
			s.exited = true
			return nil
		}

		var signal syscall.Signal
		switch stop.Kind {
		case StopExited:
			log.Printf("[TRACE] Session %s: target exited with code %d", s.ID, stop.Code)
			s.exited = true
			return nil
		case StopKilled:
			log.Printf("[TRACE] Session %s: target killed by %v", s.ID, stop.Signal)
			s.exited = true
			return nil
		case StopSyscall:
			if err := s.handleSyscall(); err != nil {
				return err
			}
		case StopSignal:
			if s.awaitingAttachStop && stop.Signal == unix.SIGSTOP {
				s.awaitingAttachStop = false
				break
			}
			signal = stop.Signal
		case StopTrap:
			log.Printf("[TRACE] Session %s: suppressed ptrace SIGTRAP", s.ID)
		}

		if err := s.resume(signal); err != nil {
			return err
		}
	}
}

// handleSyscall inspects one syscall stop and forwards the buffer of a
// write(2) entry on an observed descriptor.
func (s *Session) handleSyscall() error {
	regs, err := s.tracer.GetRegs(s.Pid)
	if err != nil {
		return newError(ErrGetRegs, "ptrace getregs", s.Pid, err)
	}

	phase := s.classifier.Classify(regs.Syscall)
	if phase != PhaseEntry || regs.Syscall != SyscallWrite {
		return nil
	}

	fd, addr, count := regs.Args[0], uintptr(regs.Args[1]), regs.Args[2]
	if !s.forwarder.Observes(fd) {
		return nil
	}

	data, err := s.memory.Read(addr, count)
	if err != nil {
		return err
	}
	if err := s.forwarder.Forward(fd, data); err != nil {
		return newError(ErrOutputWrite, "forward write of", s.Pid, err)
	}
	return nil
}

func (s *Session) resume(signal syscall.Signal) error {
	if err := s.tracer.Resume(s.Pid, signal); err != nil {
		return newError(ErrResume, "ptrace syscall", s.Pid, err)
	}
	return nil
}
