package state

import "testing"

func TestMemoryManagerStepLifecycle(t *testing.T) {
	m := NewMemoryManager()

	if m.InProgress(1) {
		t.Fatal("fresh user must be idle")
	}
	if got := m.Step(1); got != StateIdle {
		t.Fatalf("step = %s, expected idle", got)
	}

	m.SetStep(1, State("form:name"))
	if !m.InProgress(1) {
		t.Fatal("user must be in progress after SetStep")
	}
	if got := m.Step(1); got != State("form:name") {
		t.Fatalf("step = %s", got)
	}

	m.Clear(1)
	if m.InProgress(1) {
		t.Fatal("user must be idle after Clear")
	}
}

func TestMemoryManagerFieldsMergeAndClear(t *testing.T) {
	m := NewMemoryManager()

	m.UpdateFields(7, map[string]any{"name": "Steam key", "price": "9.99"})
	m.UpdateFields(7, map[string]any{"description": "global"})

	fields := m.Fields(7)
	if fields["name"] != "Steam key" || fields["description"] != "global" {
		t.Fatalf("fields = %v", fields)
	}

	if got := m.FieldString(7, "price"); got != "9.99" {
		t.Fatalf("price = %q", got)
	}
	if _, ok := m.Field(7, "missing"); ok {
		t.Fatal("missing key reported present")
	}

	m.ClearField(7, "price")
	if _, ok := m.Field(7, "price"); ok {
		t.Fatal("cleared key reported present")
	}
}

func TestMemoryManagerFieldInt64Coercion(t *testing.T) {
	m := NewMemoryManager()

	m.UpdateFields(2, map[string]any{
		"as_int":   42,
		"as_int64": int64(43),
		// a session reloaded from JSON carries numbers as float64
		"as_float": float64(44),
		"as_text":  "45",
		"bad":      "not a number",
	})

	for key, want := range map[string]int64{"as_int": 42, "as_int64": 43, "as_float": 44, "as_text": 45} {
		got, ok := m.FieldInt64(2, key)
		if !ok || got != want {
			t.Fatalf("FieldInt64(%s) = %d, %v; want %d", key, got, ok, want)
		}
	}
	if _, ok := m.FieldInt64(2, "bad"); ok {
		t.Fatal("non-numeric value coerced")
	}
}

func TestMemoryManagerFieldsIsolatedPerUser(t *testing.T) {
	m := NewMemoryManager()

	m.UpdateFields(1, map[string]any{"name": "a"})
	m.UpdateFields(2, map[string]any{"name": "b"})
	m.Clear(1)

	if got := m.FieldString(2, "name"); got != "b" {
		t.Fatalf("user 2 scratch lost: %q", got)
	}
}

func TestMemoryManagerFieldsReturnsCopy(t *testing.T) {
	m := NewMemoryManager()
	m.UpdateFields(3, map[string]any{"name": "x"})

	fields := m.Fields(3)
	fields["name"] = "mutated"

	if got := m.FieldString(3, "name"); got != "x" {
		t.Fatalf("scratch mutated through copy: %q", got)
	}
}
