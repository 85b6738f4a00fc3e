//go:build linux && (amd64 || arm64)

package trace

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	ptylib "github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/PiranhaCodes/procout/internal/output"
)

// targetScript announces itself, blocks until the test has attached and
// sends a line on stdin, then writes to stdout and stderr. The second
// payload is 20 bytes, spanning three words.
const targetScript = `printf 'ready\n'; read go; printf 'hello\n'; printf '0123456789abcdefghij'; printf 'oops\n' >&2`

// terminal collects everything written to the slave side of a raw pty.
type terminal struct {
	master *os.File
	slave  *os.File

	mu   sync.Mutex
	data bytes.Buffer
	done chan struct{}
}

func openTerminal(t *testing.T) *terminal {
	t.Helper()
	master, slave, err := ptylib.Open()
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		master.Close()
		slave.Close()
		t.Fatalf("MakeRaw: %v", err)
	}

	tty := &terminal{master: master, slave: slave, done: make(chan struct{})}
	go func() {
		defer close(tty.done)
		buf := make([]byte, 4096)
		for {
			n, err := master.Read(buf)
			tty.mu.Lock()
			tty.data.Write(buf[:n])
			tty.mu.Unlock()
			if err != nil {
				return
			}
		}
	}()
	return tty
}

func (tty *terminal) String() string {
	tty.mu.Lock()
	defer tty.mu.Unlock()
	return tty.data.String()
}

func (tty *terminal) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(tty.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q, have %q", want, tty.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// drain closes the test's copy of the slave and returns everything the
// target wrote once the master reports EOF.
func (tty *terminal) drain(t *testing.T) string {
	t.Helper()
	tty.slave.Close()
	select {
	case <-tty.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out draining pty")
	}
	tty.master.Close()
	return tty.String()
}

// traceTarget runs targetScript under the tracer and returns the bytes the
// tracer relayed together with the bytes the pty actually received after
// the attach point.
func traceTarget(t *testing.T) (relayed, written string) {
	t.Helper()
	tty := openTerminal(t)

	cmd := exec.Command("/bin/sh", "-c", targetScript)
	cmd.Stdout = tty.slave
	cmd.Stderr = tty.slave
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatalf("StdinPipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting target: %v", err)
	}
	t.Cleanup(func() {
		stdin.Close()
		cmd.Process.Kill()
	})
	tty.waitFor(t, "ready\n")

	var relay bytes.Buffer
	sess, err := Start(cmd.Process.Pid, NewPtracer(), output.NewMultiplexer(&relay, &relay), Options{})
	if errors.Is(err, unix.EPERM) {
		t.Skipf("ptrace not permitted: %v", err)
	}
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sess.Close()

	if _, err := io.WriteString(stdin, "go\n"); err != nil {
		t.Fatalf("writing to target stdin: %v", err)
	}
	if err := sess.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	written = strings.TrimPrefix(tty.drain(t), "ready\n")
	return relay.String(), written
}

func TestTraceRelaysTargetOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("traces a real process")
	}

	relayed, written := traceTarget(t)
	want := "hello\n0123456789abcdefghijoops\n"
	if written != want {
		t.Fatalf("target wrote %q, want %q", written, want)
	}
	if relayed != written {
		t.Errorf("relayed %q, target wrote %q", relayed, written)
	}
}

func TestTraceIsRepeatable(t *testing.T) {
	if testing.Short() {
		t.Skip("traces a real process")
	}

	first, _ := traceTarget(t)
	second, _ := traceTarget(t)
	if first != second {
		t.Errorf("first run relayed %q, second run relayed %q", first, second)
	}
}

func TestTraceTargetExitsSilently(t *testing.T) {
	if testing.Short() {
		t.Skip("traces a real process")
	}

	cmd := exec.Command("/bin/sh", "-c", "read go")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatalf("StdinPipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting target: %v", err)
	}
	defer cmd.Process.Kill()

	var relay bytes.Buffer
	sess, err := Start(cmd.Process.Pid, NewPtracer(), output.NewMultiplexer(&relay, &relay), Options{})
	if errors.Is(err, unix.EPERM) {
		t.Skipf("ptrace not permitted: %v", err)
	}
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sess.Close()

	stdin.Close()
	if err := sess.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if relay.Len() != 0 {
		t.Errorf("relayed %q from a silent target", relay.String())
	}
}

func TestStartMissingProcess(t *testing.T) {
	cmd := exec.Command("/bin/true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("running /bin/true: %v", err)
	}
	pid := cmd.ProcessState.Pid()

	_, err := Start(pid, NewPtracer(), output.NewMultiplexer(io.Discard, io.Discard), Options{})
	if !errors.Is(err, ErrAttach) {
		t.Fatalf("Start error = %v, want %v", err, ErrAttach)
	}
}
