package runtime

import (
	"reflect"
	"testing"

	"github.com/faasline/harness"
)

func TestNormalize_Value(t *testing.T) {
	v := map[string]any{"ok": true}

	got := Normalize(harness.ValueOutcome(v))
	if !reflect.DeepEqual(got, v) {
		t.Errorf("Normalize = %#v, want the value unchanged", got)
	}
}

func TestNormalize_Absent(t *testing.T) {
	got := Normalize(harness.AbsentOutcome())
	if m, ok := got.(map[string]any); !ok || len(m) != 0 {
		t.Errorf("Normalize = %#v, want an empty structured value", got)
	}
}

func TestNormalize_Fault(t *testing.T) {
	got := Normalize(harness.FaultOutcome(harness.Fault{"name": "Error", "message": "boom"}))

	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("Normalize = %#v, want a map", got)
	}
	fault, ok := m["error"].(map[string]any)
	if !ok {
		t.Fatalf("envelope = %#v, want an error key", m)
	}
	if fault["message"] != "boom" {
		t.Errorf("fault message = %v, want boom", fault["message"])
	}
}

func TestNormalize_EmptyFault(t *testing.T) {
	got := Normalize(harness.FaultOutcome(nil))

	m := got.(map[string]any)
	fault, ok := m["error"].(map[string]any)
	if !ok || len(fault) != 0 {
		t.Errorf("envelope = %#v, want an empty structured fault", got)
	}
}

func TestNormalize_UnserializableFaultDegrades(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	got := Normalize(harness.FaultOutcome(harness.Fault{"bad": cyclic}))

	m := got.(map[string]any)
	fault, ok := m["error"].(map[string]any)
	if !ok {
		t.Fatalf("envelope = %#v, want an error key", got)
	}
	if _, ok := fault["message"]; !ok {
		t.Errorf("degraded fault = %#v, want a message", fault)
	}
	if _, ok := fault["bad"]; ok {
		t.Errorf("degraded fault still carries the unserializable field")
	}
}
