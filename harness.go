package harness

import "context"

// Fault is the flattened, serializable representation of a failure raised by
// a bound callable: a thrown fault or the reason of a rejected pending value.
// A fault that carried no usable information is an empty (but non-nil) map.
type Fault map[string]any

// Outcome is the raw result of one invocation, after any pending value has
// settled but before envelope normalization. Exactly one of the three shapes
// holds: a fault (Faulted), no value at all (Absent), or Value.
type Outcome struct {
	Value   any
	Fault   Fault
	Faulted bool
	Absent  bool
}

// ValueOutcome tags v as a successfully settled value.
func ValueOutcome(v any) Outcome {
	return Outcome{Value: v}
}

// AbsentOutcome tags an invocation that produced no value.
func AbsentOutcome() Outcome {
	return Outcome{Absent: true}
}

// FaultOutcome tags a thrown fault or rejection. A nil fault is recorded as
// an empty fault, the "failed with nothing" case.
func FaultOutcome(f Fault) Outcome {
	if f == nil {
		f = Fault{}
	}
	return Outcome{Fault: f, Faulted: true}
}

// Callable is a bound entry point. Implementations capture every failure
// mode of the underlying code as a fault Outcome; Invoke itself never panics
// and never returns an error.
//
// A Callable is bound exactly once per harness instance and is read-only
// afterwards. Implementations may assume invocations are serialized.
type Callable interface {
	Invoke(ctx context.Context, input any) Outcome
}
