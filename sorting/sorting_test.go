package sorting

import (
	"testing"

	"github.com/korea/kivescript/ast"
)

func addTrigger(topic *ast.Topic, pattern string, replies ...string) {
	topic.Triggers = append(topic.Triggers, &ast.Trigger{Pattern: pattern, Replies: replies})
}

func patternStrings(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Pattern
	}
	return out
}

func TestSortBySpecificityOrder(t *testing.T) {
	root := ast.NewRoot()
	topic := root.Topic("random")
	addTrigger(topic, "hello there", "atomic")
	addTrigger(topic, "hello [there]", "optional")
	addTrigger(topic, "hello _", "under")
	addTrigger(topic, "hello #", "pound")
	addTrigger(topic, "hello *", "star")

	buf := NewBuffer()
	if err := Sort(root, buf, 50); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	got := patternStrings(buf.Topics["random"])
	want := []string{"hello there", "hello [there]", "hello _", "hello #", "hello *"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q (full order %v)", i, got[i], want[i], got)
		}
	}
}

func TestSortByWeightDescending(t *testing.T) {
	root := ast.NewRoot()
	topic := root.Topic("random")
	addTrigger(topic, "low {weight=1}")
	addTrigger(topic, "high {weight=10}")
	addTrigger(topic, "none")

	buf := NewBuffer()
	if err := Sort(root, buf, 50); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	got := patternStrings(buf.Topics["random"])
	if got[0] != "high {weight=10}" {
		t.Errorf("expected highest-weight trigger first, got %v", got)
	}
}

func TestSortWordCountWithinClass(t *testing.T) {
	root := ast.NewRoot()
	topic := root.Topic("random")
	addTrigger(topic, "hi")
	addTrigger(topic, "hi there friend")

	buf := NewBuffer()
	if err := Sort(root, buf, 50); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	got := patternStrings(buf.Topics["random"])
	if got[0] != "hi there friend" {
		t.Errorf("more words should sort first, got %v", got)
	}
}

func TestSortInheritsLevel(t *testing.T) {
	root := ast.NewRoot()
	parent := root.Topic("parent")
	addTrigger(parent, "*", "parent catch-all")
	child := root.Topic("child")
	child.Inherits = []string{"parent"}
	addTrigger(child, "*", "child catch-all")

	buf := NewBuffer()
	if err := Sort(root, buf, 50); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	got := patternStrings(buf.Topics["child"])
	if len(got) != 2 {
		t.Fatalf("expected 2 triggers in child topic, got %v", got)
	}
	if buf.Topics["child"][0].Trigger.Replies[0] != "child catch-all" {
		t.Errorf("child's own trigger should outrank the inherited one, got order %v", got)
	}
}

func TestSortThatsList(t *testing.T) {
	root := ast.NewRoot()
	topic := root.Topic("random")
	topic.Triggers = append(topic.Triggers, &ast.Trigger{Pattern: "yes", Previous: "did you like it"})
	addTrigger(topic, "yes")

	buf := NewBuffer()
	if err := Sort(root, buf, 50); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if len(buf.Thats["random"]) != 1 {
		t.Fatalf("expected 1 that-entry, got %d", len(buf.Thats["random"]))
	}
	if buf.Thats["random"][0].Pattern != "did you like it" {
		t.Errorf("that entry pattern = %q", buf.Thats["random"][0].Pattern)
	}
}

func TestSortDeepRecursionDetected(t *testing.T) {
	root := ast.NewRoot()
	for i := 0; i < 10; i++ {
		name := topicChainName(i)
		topic := root.Topic(name)
		addTrigger(topic, "hi")
		if i > 0 {
			topic.Includes = []string{topicChainName(i - 1)}
		}
	}

	buf := NewBuffer()
	if err := Sort(root, buf, 3); err == nil {
		t.Errorf("expected deep recursion error for a chain deeper than maxDepth")
	}
}

func topicChainName(i int) string {
	return "chain" + string(rune('a'+i))
}

func TestEmptyBuffer(t *testing.T) {
	buf := NewBuffer()
	if !buf.Empty() {
		t.Errorf("fresh buffer should be Empty")
	}
	root := ast.NewRoot()
	root.Topic("random")
	Sort(root, buf, 50)
	if buf.Empty() {
		t.Errorf("buffer should not be Empty after Sort")
	}
}
