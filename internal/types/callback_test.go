package types_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-siptx/siptx/internal/types"
)

func TestCallbackManager_Order(t *testing.T) {
	t.Parallel()

	var m types.CallbackManager[func()]

	var got []string
	m.Add(func() { got = append(got, "a") })
	removeB := m.Add(func() { got = append(got, "b") })
	m.Add(func() { got = append(got, "c") })

	if m.Len() != 3 {
		t.Fatalf("m.Len() = %d, want 3", m.Len())
	}

	m.Range(func(cb func()) { cb() })
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("callback order mismatch (-want +got):\n%s", diff)
	}

	got = nil
	removeB()
	removeB() // idempotent
	m.Range(func(cb func()) { cb() })
	if diff := cmp.Diff([]string{"a", "c"}, got); diff != "" {
		t.Fatalf("callback order after remove mismatch (-want +got):\n%s", diff)
	}
	if m.Len() != 2 {
		t.Fatalf("m.Len() = %d, want 2", m.Len())
	}
}

func TestCallbackManager_NilSafe(t *testing.T) {
	t.Parallel()

	var m *types.CallbackManager[func()]
	if m.Len() != 0 {
		t.Fatalf("nil manager Len() = %d, want 0", m.Len())
	}
	m.Range(func(func()) { t.Fatal("nil manager must not iterate") })
}
