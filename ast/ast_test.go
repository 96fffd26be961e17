package ast

import "testing"

func TestRootTopicGetOrCreate(t *testing.T) {
	r := NewRoot()
	if len(r.Topics) != 0 {
		t.Fatalf("expected empty topic map, got %d", len(r.Topics))
	}
	a := r.Topic("random")
	b := r.Topic("random")
	if a != b {
		t.Errorf("Topic should return the same pointer on repeat calls")
	}
	if a.Name != "random" {
		t.Errorf("Name = %q, want %q", a.Name, "random")
	}
}

func TestNewRootMapsReady(t *testing.T) {
	r := NewRoot()
	r.Begin.Vars["name"] = "Kive"
	r.Begin.Arrays["colors"] = append(r.Begin.Arrays["colors"], "red")
	if r.Begin.Vars["name"] != "Kive" {
		t.Errorf("Begin.Vars not writable after NewRoot")
	}
	if len(r.Begin.Arrays["colors"]) != 1 {
		t.Errorf("Begin.Arrays not writable after NewRoot")
	}
}
