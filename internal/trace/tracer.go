package trace

import "syscall"

// StopKind is the reason a wait on the target returned.
type StopKind int

const (
	// StopExited means the target exited normally.
	StopExited StopKind = iota
	// StopKilled means the target was terminated by a signal.
	StopKilled
	// StopSyscall is a syscall-entry or syscall-exit stop
	// (SIGTRAP|0x80 under PTRACE_O_TRACESYSGOOD).
	StopSyscall
	// StopSignal is a signal-delivery stop; Signal holds the signal.
	StopSignal
	// StopTrap is a SIGTRAP stop raised by ptrace itself, such as the
	// notification sent after a traced execve.
	StopTrap
)

// Stop describes one wait result.
type Stop struct {
	Kind   StopKind
	Signal syscall.Signal
	Code   int
}

// Registers is the part of the target's register file needed to decode a
// system call: its number and its first three arguments.
type Registers struct {
	Syscall uint64
	Args    [3]uint64
}

// Tracer is the set of ptrace operations a Session drives. Every method
// must be called from the OS thread that called Attach.
type Tracer interface {
	WordReader
	Attach(pid int) error
	SetOptions(pid int, options int) error
	Wait(pid int) (Stop, error)
	GetRegs(pid int) (Registers, error)
	Resume(pid int, signal syscall.Signal) error
	Detach(pid int) error
}
