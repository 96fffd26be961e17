package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/korea/kivescript/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSetGet(t *testing.T) {
	s := openTestStore(t)
	s.Set("alice", "mood", "happy")
	if got := s.Get("alice", "mood"); got != "happy" {
		t.Errorf("Get = %q", got)
	}
	if got := s.Get("alice", "missing"); got != session.Undefined {
		t.Errorf("Get(missing) = %q, want %q", got, session.Undefined)
	}
}

func TestStoreDefaultTopic(t *testing.T) {
	s := openTestStore(t)
	if got := s.Get("alice", "topic"); got != "random" {
		t.Errorf("default topic = %q", got)
	}
}

func TestStoreHistory(t *testing.T) {
	s := openTestStore(t)
	s.AddHistory("alice", "hi", "hello")
	s.AddHistory("alice", "bye", "goodbye")
	h := s.GetHistory("alice")
	if h.InputAt(1) != "bye" || h.InputAt(2) != "hi" {
		t.Errorf("history order wrong: %v", h.Input)
	}
}

func TestStoreFreezeThaw(t *testing.T) {
	s := openTestStore(t)
	s.Set("alice", "mood", "happy")
	s.Freeze("alice")
	s.Set("alice", "mood", "sad")
	s.Thaw("alice", session.Thaw)
	if got := s.Get("alice", "mood"); got != "happy" {
		t.Errorf("Thaw should restore frozen value, got %q", got)
	}
}

func TestStoreClearAndUsernames(t *testing.T) {
	s := openTestStore(t)
	s.Set("alice", "k", "v")
	s.Set("bob", "k", "v")
	names := s.Usernames()
	if len(names) != 2 {
		t.Fatalf("Usernames = %v, want 2 entries", names)
	}
	s.Clear("alice")
	names = s.Usernames()
	if len(names) != 1 || names[0] != "bob" {
		t.Errorf("Usernames after Clear = %v", names)
	}
}
