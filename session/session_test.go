package session

import "testing"

func TestHistoryUndefinedSentinel(t *testing.T) {
	h := NewHistory(3)
	if got := h.InputAt(1); got != Undefined {
		t.Errorf("InputAt(1) on fresh history = %q, want %q", got, Undefined)
	}
	if got := h.InputAt(0); got != Undefined {
		t.Errorf("InputAt(0) (reserved index) = %q, want %q", got, Undefined)
	}
	if got := h.InputAt(99); got != Undefined {
		t.Errorf("InputAt(99) out of range = %q, want %q", got, Undefined)
	}
}

func TestHistoryPushOrder(t *testing.T) {
	h := NewHistory(2)
	h.push("hi", "hello")
	h.push("bye", "goodbye")
	if got := h.InputAt(1); got != "bye" {
		t.Errorf("InputAt(1) = %q, want %q", got, "bye")
	}
	if got := h.InputAt(2); got != "hi" {
		t.Errorf("InputAt(2) = %q, want %q", got, "hi")
	}
	if got := h.ReplyAt(1); got != "goodbye" {
		t.Errorf("ReplyAt(1) = %q, want %q", got, "goodbye")
	}
}

func TestInMemorySetGet(t *testing.T) {
	m := NewInMemory(9)
	m.Set("alice", "name", "Alice")
	if got := m.Get("alice", "name"); got != "Alice" {
		t.Errorf("Get = %q, want %q", got, "Alice")
	}
	if got := m.Get("alice", "missing"); got != Undefined {
		t.Errorf("Get(missing) = %q, want %q", got, Undefined)
	}
	if got := m.Get("bob", "name"); got != Undefined {
		t.Errorf("Get for unseen user should be Undefined, got %q", got)
	}
}

func TestInMemoryDefaultTopic(t *testing.T) {
	m := NewInMemory(9)
	m.Init("alice")
	if got := m.Get("alice", "topic"); got != "random" {
		t.Errorf("default topic = %q, want %q", got, "random")
	}
}

func TestInMemoryFreezeThaw(t *testing.T) {
	m := NewInMemory(9)
	m.Set("alice", "mood", "happy")
	m.Freeze("alice")
	m.Set("alice", "mood", "sad")

	m.Thaw("alice", Discard)
	if got := m.Get("alice", "mood"); got != "sad" {
		t.Errorf("Discard should leave current vars alone, got %q", got)
	}

	m.Freeze("alice")
	m.Set("alice", "mood", "angry")
	m.Thaw("alice", Thaw)
	if got := m.Get("alice", "mood"); got != "sad" {
		t.Errorf("Thaw should restore frozen vars, got %q", got)
	}
	// Frozen copy is now gone; a second Thaw is a no-op.
	m.Set("alice", "mood", "excited")
	m.Thaw("alice", Thaw)
	if got := m.Get("alice", "mood"); got != "excited" {
		t.Errorf("second Thaw with no snapshot should be a no-op, got %q", got)
	}
}

func TestInMemoryClearAll(t *testing.T) {
	m := NewInMemory(9)
	m.Set("alice", "k", "v")
	m.Set("bob", "k", "v")
	m.ClearAll()
	if got := m.Get("alice", "k"); got != Undefined {
		t.Errorf("ClearAll should drop all records, got %q", got)
	}
}

func TestInMemoryHistoryIsolatedCopy(t *testing.T) {
	m := NewInMemory(2)
	m.AddHistory("alice", "hi", "hello")
	h := m.GetHistory("alice")
	h.Input[0] = "tampered"
	if got := m.GetHistory("alice").InputAt(1); got != "hi" {
		t.Errorf("GetHistory should return an isolated copy, got %q", got)
	}
}
