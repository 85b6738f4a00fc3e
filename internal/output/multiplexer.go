package output

import (
	"bufio"
	"fmt"
	"io"
)

// Descriptors relayed from the target.
const (
	// Stdout is the target's standard output descriptor.
	Stdout = 1
	// Stderr is the target's standard error descriptor.
	Stderr = 2
)

// Multiplexer routes writes on descriptor 1 to a local stdout and writes
// on descriptor 2 to a local stderr, flushing after every buffer.
type Multiplexer struct {
	stdout *bufio.Writer
	stderr *bufio.Writer
}

// NewMultiplexer creates a Multiplexer writing to stdout and stderr.
func NewMultiplexer(stdout, stderr io.Writer) *Multiplexer {
	return &Multiplexer{
		stdout: bufio.NewWriter(stdout),
		stderr: bufio.NewWriter(stderr),
	}
}

// Observes reports whether fd is one of the relayed descriptors.
func (m *Multiplexer) Observes(fd uint64) bool {
	return fd == Stdout || fd == Stderr
}

// Forward writes data to the stream matching fd and flushes it. Buffers
// for any other descriptor are discarded.
func (m *Multiplexer) Forward(fd uint64, data []byte) error {
	var w *bufio.Writer
	var name string
	switch fd {
	case Stdout:
		w, name = m.stdout, "stdout"
	case Stderr:
		w, name = m.stderr, "stderr"
	default:
		return nil
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write to %s: %w", name, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}
