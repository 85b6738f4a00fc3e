package trace

// Phase says whether a syscall stop is the entry to or the exit from a call.
type Phase int

const (
	// PhaseEntry is the stop just before the kernel runs the call.
	PhaseEntry Phase = iota
	// PhaseExit is the stop just after the call returns.
	PhaseExit
)

func (p Phase) String() string {
	if p == PhaseEntry {
		return "entry"
	}
	return "exit"
}

// Classifier tells syscall-entry stops from syscall-exit stops. Plain
// PTRACE_SYSCALL reports both with the same status, so the classifier
// tracks the call number seen at the previous stop: a different number
// always starts a new call, and a repeated number alternates between
// entry and exit.
//
// Two back-to-back calls with the same number whose stops arrive out of
// pairing order are misclassified. One Classifier serves one session;
// the zero value is ready to use.
type Classifier struct {
	prev    uint64
	seen    bool
	inEntry bool
}

// Classify records a stop for syscall number sysno and reports its phase.
func (c *Classifier) Classify(sysno uint64) Phase {
	if c.seen && sysno == c.prev {
		c.inEntry = !c.inEntry
	} else {
		c.inEntry = true
	}
	c.prev = sysno
	c.seen = true

	if c.inEntry {
		return PhaseEntry
	}
	return PhaseExit
}
