package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/faasline/harness"
)

// Normalize maps an outcome to its result envelope: the settled value passed
// through unchanged, an empty structured value when the callable produced
// nothing, or a map carrying the fault under an "error" key. Normalization
// never fails; a fault that resists serialization degrades to a best-effort
// structured fault.
func Normalize(o harness.Outcome) any {
	if o.Faulted {
		return map[string]any{"error": sanitizeFault(o.Fault)}
	}
	if o.Absent {
		return map[string]any{}
	}
	return o.Value
}

func sanitizeFault(f harness.Fault) map[string]any {
	if f == nil {
		return map[string]any{}
	}
	if _, err := json.Marshal(f); err != nil {
		return map[string]any{"message": fmt.Sprintf("fault could not be serialized: %v", err)}
	}
	return map[string]any(f)
}
