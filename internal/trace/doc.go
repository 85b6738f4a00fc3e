// Package trace attaches to a running process with ptrace, stops it at
// every system call boundary, and forwards the buffers it passes to
// write(2) on stdout and stderr. It covers the attach handshake, the
// entry/exit classification of syscall stops, and word-by-word
// reconstruction of the target's memory.
package trace
