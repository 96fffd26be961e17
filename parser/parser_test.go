package parser

import (
	"strings"
	"testing"

	"github.com/korea/kivescript/config"
)

func TestLoadBasicTrigger(t *testing.T) {
	p := New(config.NewBuilder().Build(), nil)
	lines := strings.Split("+ hello bot\n- Hello human!", "\n")
	if err := p.Load("test", lines); err != nil {
		t.Fatalf("Load: %v", err)
	}
	topic := p.Root().Topics["random"]
	if len(topic.Triggers) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(topic.Triggers))
	}
	tr := topic.Triggers[0]
	if tr.Pattern != "hello bot" {
		t.Errorf("Pattern = %q", tr.Pattern)
	}
	if len(tr.Replies) != 1 || tr.Replies[0] != "Hello human!" {
		t.Errorf("Replies = %#v", tr.Replies)
	}
}

func TestLoadTopicIncludesInherits(t *testing.T) {
	p := New(config.NewBuilder().Build(), nil)
	lines := []string{
		"> topic parent",
		"+ *",
		"- generic reply",
		"< topic",
		"> topic child includes parent inherits parent",
		"+ hi",
		"- hi there",
		"< topic",
	}
	if err := p.Load("test", lines); err != nil {
		t.Fatalf("Load: %v", err)
	}
	child := p.Root().Topics["child"]
	if len(child.Includes) != 1 || child.Includes[0] != "parent" {
		t.Errorf("Includes = %#v", child.Includes)
	}
	if len(child.Inherits) != 1 || child.Inherits[0] != "parent" {
		t.Errorf("Inherits = %#v", child.Inherits)
	}
}

func TestLoadContinuationConcat(t *testing.T) {
	mode := config.ConcatSpace
	cfg := config.NewBuilder().Concat(mode).Build()
	p := New(cfg, nil)
	lines := []string{
		"+ long trigger",
		"- first part",
		"^ second part",
	}
	if err := p.Load("test", lines); err != nil {
		t.Fatalf("Load: %v", err)
	}
	tr := p.Root().Topics["random"].Triggers[0]
	if tr.Replies[0] != "first part second part" {
		t.Errorf("Replies[0] = %q", tr.Replies[0])
	}
}

func TestLoadPreviousAttachesToTrigger(t *testing.T) {
	p := New(config.NewBuilder().Build(), nil)
	lines := []string{
		"+ yes",
		"% did you like it",
		"- Great!",
	}
	if err := p.Load("test", lines); err != nil {
		t.Fatalf("Load: %v", err)
	}
	tr := p.Root().Topics["random"].Triggers[0]
	if tr.Previous != "did you like it" {
		t.Errorf("Previous = %q", tr.Previous)
	}
}

func TestVersionAboveSupportedIsHardError(t *testing.T) {
	p := New(config.NewBuilder().Build(), nil)
	lines := []string{"! version = 99.0"}
	if err := p.Load("test", lines); err == nil {
		t.Errorf("expected error for unsupported version, even outside strict mode")
	}
}

func TestObjectMacroBody(t *testing.T) {
	p := New(config.NewBuilder().Build(), nil)
	lines := []string{
		"> object mymacro javascript",
		"return \"hi\";",
		"< object",
	}
	if err := p.Load("test", lines); err != nil {
		t.Fatalf("Load: %v", err)
	}
	obj, ok := p.Root().Objects["mymacro"]
	if !ok {
		t.Fatalf("object macro not recorded")
	}
	if obj.Lang != "javascript" || len(obj.Code) != 1 {
		t.Errorf("obj = %+v", obj)
	}
}

func TestStrictModeRejectsMalformedDefine(t *testing.T) {
	p := New(config.NewBuilder().Strict(true).Build(), nil)
	lines := []string{"! bogus kind = value"}
	if err := p.Load("test", lines); err == nil {
		t.Errorf("expected strict-mode error for unknown define kind")
	}
}

func TestNonStrictModeLogsAndContinues(t *testing.T) {
	p := New(config.NewBuilder().Strict(false).Build(), nil)
	lines := []string{
		"! bogus kind = value",
		"+ hi",
		"- hello",
	}
	if err := p.Load("test", lines); err != nil {
		t.Fatalf("non-strict Load should not fail: %v", err)
	}
	if len(p.Root().Topics["random"].Triggers) != 1 {
		t.Errorf("subsequent valid trigger should still be parsed")
	}
}
