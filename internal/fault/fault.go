// Package fault implements the error taxonomy shared by every lane runtime.
//
// A Fault categorizes a failure so the dispatcher can translate it into the
// right exit code without needing to know which lane produced the error.
package fault

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the taxonomy bucket a Fault belongs to.
type Kind string

const (
	ValidationError Kind = "validation_error"
	ToolUnavailable Kind = "tool_unavailable"
	SetupError      Kind = "setup_error"
	StepFailure     Kind = "step_failure"
	Timeout         Kind = "timeout"
	PolicyAbort     Kind = "policy_abort"
	Cancelled       Kind = "cancelled"
	Internal        Kind = "internal"
)

// Severity controls whether a scenario may continue after a Fault is recorded.
type Severity int

const (
	// Recoverable faults are logged but do not necessarily stop the run.
	Recoverable Severity = iota
	// Fatal faults stop the scenario that produced them.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Recoverable:
		return "recoverable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// defaultSeverity derives a Fault's severity purely from its Kind. Every
// kind in the §7 taxonomy is fatal to the scenario that raised it by
// default; WithSeverity overrides the severity of an individual fault.
func defaultSeverity(Kind) Severity {
	return Fatal
}

// Context carries structured debugging detail attached to a Fault.
type Context map[string]any

// Fault is a single categorized failure with enough context to render a
// failure bundle entry or a validation error line.
type Fault struct {
	Kind      Kind
	Message   string
	Context   Context
	Timestamp time.Time
	Attempt   int
	Severity  Severity

	// FieldPath is set for ValidationError faults (§7: "reported with
	// field_path, reason").
	FieldPath string
}

// New creates a Fault of the given kind with the default severity for that
// kind.
func New(kind Kind, message string, ctx Context) *Fault {
	return &Fault{
		Kind:      kind,
		Message:   message,
		Context:   ctx,
		Timestamp: time.Now(),
		Severity:  defaultSeverity(kind),
	}
}

// Validation creates a ValidationError fault carrying a field path.
func Validation(fieldPath, reason string) *Fault {
	f := New(ValidationError, reason, nil)
	f.FieldPath = fieldPath
	return f
}

// WithAttempt records which retry attempt produced this fault.
func (f *Fault) WithAttempt(attempt int) *Fault {
	f.Attempt = attempt
	return f
}

// WithSeverity overrides the default severity.
func (f *Fault) WithSeverity(s Severity) *Fault {
	f.Severity = s
	return f
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.FieldPath != "" {
		return fmt.Sprintf("[%s] %s: %s", f.Kind, f.FieldPath, f.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", f.Kind, f.Severity, f.Message)
}

// Recoverable reports whether execution may continue despite this fault.
func (f *Fault) Recoverable() bool {
	return f.Severity == Recoverable
}

// Get returns a context value if present.
func (f *Fault) Get(key string) (any, bool) {
	if f.Context == nil {
		return nil, false
	}
	v, ok := f.Context[key]
	return v, ok
}

// Detail renders a multi-line, human-readable dump of the fault.
func (f *Fault) Detail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s", f.Kind, f.Severity, f.Message)
	fmt.Fprintf(&b, "\n  Time: %s", f.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	if f.Attempt > 0 {
		fmt.Fprintf(&b, "\n  Attempt: %d", f.Attempt)
	}
	if f.FieldPath != "" {
		fmt.Fprintf(&b, "\n  FieldPath: %s", f.FieldPath)
	}
	if len(f.Context) > 0 {
		b.WriteString("\n  Context:")
		for k, v := range f.Context {
			fmt.Fprintf(&b, "\n    %s: %v", k, v)
		}
	}
	return b.String()
}

// Handler aggregates faults for a single run and decides whether execution
// may continue, mirroring the policy-driven stop/continue decision every
// lane needs but none should reimplement separately.
type Handler struct {
	component string
	faults    []*Fault
	policy    *Policy
}

// Policy controls how a Handler reacts to accumulated faults.
type Policy struct {
	// StopOnFatal halts the run as soon as a Fatal fault is recorded.
	StopOnFatal bool
	// MaxRecoverable bounds how many Recoverable faults may accumulate
	// before the handler treats the run as unhealthy. Zero disables the
	// bound.
	MaxRecoverable int
}

// DefaultPolicy stops on the first fatal fault and tolerates up to 10
// recoverable faults. NewHandler falls back to it when given a nil policy.
func DefaultPolicy() *Policy {
	return &Policy{StopOnFatal: true, MaxRecoverable: 10}
}

// NewHandler creates a Handler scoped to one component name (typically a
// lane: "scripted", "pty", "visual").
func NewHandler(component string, policy *Policy) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Handler{component: component, policy: policy}
}

// Record appends a fault to the handler's history.
func (h *Handler) Record(f *Fault) {
	h.faults = append(h.faults, f)
}

// ShouldContinue reports whether the scenario may keep dispatching actions.
func (h *Handler) ShouldContinue() bool {
	recoverable := 0
	for _, f := range h.faults {
		if f.Severity == Fatal {
			if h.policy.StopOnFatal {
				return false
			}
			continue
		}
		recoverable++
	}
	if h.policy.MaxRecoverable > 0 && recoverable > h.policy.MaxRecoverable {
		return false
	}
	return true
}

// HasFatal reports whether any fatal fault has been recorded.
func (h *Handler) HasFatal() bool {
	for _, f := range h.faults {
		if f.Severity == Fatal {
			return true
		}
	}
	return false
}

// Last returns the most recently recorded fault, or nil.
func (h *Handler) Last() *Fault {
	if len(h.faults) == 0 {
		return nil
	}
	return h.faults[len(h.faults)-1]
}

// All returns every fault recorded so far, in recording order.
func (h *Handler) All() []*Fault {
	return h.faults
}

// Summary renders a one-line overview of the recorded faults.
func (h *Handler) Summary() string {
	if len(h.faults) == 0 {
		return fmt.Sprintf("[%s] no faults", h.component)
	}
	fatal, recoverable := 0, 0
	for _, f := range h.faults {
		if f.Severity == Fatal {
			fatal++
		} else {
			recoverable++
		}
	}
	return fmt.Sprintf("[%s] %d fatal, %d recoverable", h.component, fatal, recoverable)
}

// DetailedReport renders the full fault history, one Detail block per fault.
func (h *Handler) DetailedReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n%s\n", h.component, h.Summary())
	for i, f := range h.faults {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, f.Detail())
	}
	return b.String()
}

// ExitCode maps the taxonomy to the process exit codes defined in
// SPEC_FULL.md §6: 0 success, 1 execution failure, 2 validation/lint
// failure, 3 missing tooling under a strict location flag.
func ExitCode(f *Fault) int {
	if f == nil {
		return 0
	}
	switch f.Kind {
	case ValidationError:
		return 2
	case ToolUnavailable:
		return 3
	default:
		return 1
	}
}
