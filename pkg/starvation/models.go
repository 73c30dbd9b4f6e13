package starvation

import "github.com/pravinparker/infer/pkg/ir"

// EffectKind classifies what a call does to locks, as judged by the
// classifier.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectLock
	EffectUnlock
	EffectGuardConstruct
	EffectGuardLock
	EffectGuardUnlock
	EffectGuardDestroy
	// EffectLockedIfTrue marks conditional acquisition. Tracking it
	// would need the path sensitivity the domain does not have, so it
	// is deliberately ignored.
	EffectLockedIfTrue
)

// Effect is the classifier's verdict on one call.
type Effect struct {
	Kind       EffectKind
	Exps       []ir.Exp // lock-bearing operands for lock and unlock
	Guard      GuardID  // guard operand identity for guard effects
	GuardExp   ir.Exp   // lock operand bound by a guard construction
	AcquireNow bool     // guard construction acquires immediately
}

// Classifier models the lock and thread behavior of callees the
// analysis does not descend into. Implementations must be safe for
// concurrent use.
type Classifier interface {
	// Classify returns the lock effect of calling callee with args.
	Classify(callee ir.ProcName, args []ir.Exp) Effect
	// Skip reports callees whose calls are ignored entirely.
	Skip(callee ir.ProcName) bool
	// Synchronized reports library calls that run their body holding
	// the receiver's monitor; the transfer synthesizes an acquire
	// immediately followed by a release.
	Synchronized(callee ir.ProcName) bool
	// BindsUIThread reports calls that bind the caller to the main
	// thread.
	BindsUIThread(callee ir.ProcName) bool
	// Strict returns a description when calling callee violates
	// strict mode.
	Strict(callee ir.ProcName) (string, bool)
	// Blocks returns severity and description when callee may block.
	Blocks(callee ir.ProcName) (Severity, string, bool)
}

// Annotator answers annotation queries for procedures, override-aware
// where the frontend supports overriding. Implementations must be
// safe for concurrent use.
type Annotator interface {
	// Lockless reports procedures that promise not to take locks.
	Lockless(proc ir.ProcName) bool
	// NonBlocking reports procedures whose blocking events are
	// filtered from their summaries.
	NonBlocking(proc ir.ProcName) bool
	// UIThread returns the main-thread fact for a procedure, when any.
	UIThread(proc ir.ProcName) (UIExplanation, bool)
}

// IssueKind is the report category.
type IssueKind uint8

const (
	IssueDeadlock IssueKind = iota + 1
	IssueLockless
	IssueStarvation
	IssueStrictMode
)

func (k IssueKind) String() string {
	switch k {
	case IssueDeadlock:
		return "deadlock"
	case IssueLockless:
		return "lockless-violation"
	case IssueStarvation:
		return "starvation"
	case IssueStrictMode:
		return "strict-mode-violation"
	}
	return "unknown"
}

// Report is one finished diagnostic.
type Report struct {
	Proc  ir.ProcName
	Kind  IssueKind
	Sev   Severity
	Loc   ir.Location
	Msg   string
	Trace Trace
}

// Sink receives finished reports. Implementations must be safe for
// concurrent use; emission order is unspecified, so sinks that need
// determinism sort on their side.
type Sink interface {
	Report(Report)
}
