//go:build linux && (amd64 || arm64)

package trace

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// syscallStop is the stop signal reported for syscall stops once
// PTRACE_O_TRACESYSGOOD is set.
const syscallStop = unix.SIGTRAP | 0x80

// Ptracer implements Tracer with the Linux ptrace(2) interface.
type Ptracer struct{}

// NewPtracer returns a Tracer backed by ptrace(2).
func NewPtracer() *Ptracer {
	return &Ptracer{}
}

// Attach sends PTRACE_ATTACH; the target stops with SIGSTOP shortly after.
func (*Ptracer) Attach(pid int) error {
	return unix.PtraceAttach(pid)
}

// SetOptions sets PTRACE_O_* flags on a stopped target.
func (*Ptracer) SetOptions(pid int, options int) error {
	return unix.PtraceSetOptions(pid, options)
}

// Wait blocks until the target stops or terminates, retrying on EINTR.
func (*Ptracer) Wait(pid int) (Stop, error) {
	var status unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &status, unix.WALL, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return Stop{}, err
		}
		break
	}

	switch {
	case status.Exited():
		return Stop{Kind: StopExited, Code: status.ExitStatus()}, nil
	case status.Signaled():
		return Stop{Kind: StopKilled, Signal: status.Signal()}, nil
	case status.Stopped():
		switch status.StopSignal() {
		case syscallStop:
			return Stop{Kind: StopSyscall}, nil
		case unix.SIGTRAP:
			return Stop{Kind: StopTrap, Signal: unix.SIGTRAP}, nil
		}
		return Stop{Kind: StopSignal, Signal: status.StopSignal()}, nil
	}
	return Stop{}, fmt.Errorf("unexpected wait status %#x", uint32(status))
}

// PeekWord reads the WordSize bytes at addr with PTRACE_PEEKDATA.
func (*Ptracer) PeekWord(pid int, addr uintptr) (Word, error) {
	var word Word
	n, err := unix.PtracePeekData(pid, addr, word[:])
	if err != nil {
		return word, err
	}
	if n != WordSize {
		return word, fmt.Errorf("short peek at %#x: %d of %d bytes", addr, n, WordSize)
	}
	return word, nil
}

// Resume restarts the target until the next syscall boundary, delivering
// signal unless it is zero.
func (*Ptracer) Resume(pid int, signal syscall.Signal) error {
	return unix.PtraceSyscall(pid, int(signal))
}

// Detach releases the target, which continues untraced.
func (*Ptracer) Detach(pid int) error {
	return unix.PtraceDetach(pid)
}
