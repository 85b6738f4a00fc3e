package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/PiranhaCodes/procout/internal/output"
	"github.com/PiranhaCodes/procout/internal/trace"
)

const programName = "procout"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var errInvalidArgument = errors.New("specify pid")

type config struct {
	pid          int
	verbose      bool
	strictMemory bool
	showVersion  bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return 1
	}
	if cfg.showVersion {
		fmt.Printf("%s %s\n", programName, version)
		return 0
	}

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stderr)
	if !cfg.verbose {
		log.SetOutput(io.Discard)
	}

	// A closed stdout or stderr must surface as a write error, not kill
	// the tracer before it can report it.
	signal.Ignore(syscall.SIGPIPE)

	if err := relay(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return 1
	}
	return 0
}

// relay traces cfg.pid until it exits, copying its stdout and stderr
// writes to ours.
func relay(cfg config) error {
	mux := output.NewMultiplexer(os.Stdout, os.Stderr)
	sess, err := trace.Start(cfg.pid, trace.NewPtracer(), mux, trace.Options{
		StrictMemory: cfg.strictMemory,
	})
	if err != nil {
		return err
	}

	runErr := sess.Run()
	if err := sess.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// parseArgs reads the flags and the single positional pid:
//
//	procout [-v] [--strict-memory] <pid>
func parseArgs(args []string) (config, error) {
	var cfg config
	flags := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "log tracer diagnostics to stderr")
	flags.BoolVar(&cfg.strictMemory, "strict-memory", false, "abort when part of a write buffer cannot be read")
	flags.BoolVar(&cfg.showVersion, "version", false, "print version and exit")

	if err := flags.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.showVersion {
		return cfg, nil
	}

	if flags.NArg() != 1 {
		return config{}, errInvalidArgument
	}
	pid, err := strconv.Atoi(flags.Arg(0))
	if err != nil || pid <= 0 {
		return config{}, fmt.Errorf("%w: invalid pid %q", errInvalidArgument, flags.Arg(0))
	}
	cfg.pid = pid
	return cfg, nil
}
