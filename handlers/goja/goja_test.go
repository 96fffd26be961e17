package goja

import (
	"context"
	"testing"

	"github.com/korea/kivescript/handlers"
)

type fakeEngine struct {
	user string
	vars map[string]string
}

func (f *fakeEngine) CurrentUser() string { return f.user }
func (f *fakeEngine) GetVariable(name string) string {
	if v, ok := f.vars[name]; ok {
		return v
	}
	return ""
}

func TestLoadAndCallReturnsValue(t *testing.T) {
	h := NewHandler()
	e := &fakeEngine{user: "alice"}
	if err := h.Load(e, "greet", []string{"return 'hi ' + user.name;"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := h.Call(context.Background(), e, "greet", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "hi alice" {
		t.Errorf("Call = %q", got)
	}
}

func TestCallReadsArgsAndBotVar(t *testing.T) {
	h := NewHandler()
	e := &fakeEngine{user: "bob", vars: map[string]string{"mood": "happy"}}
	if err := h.Load(e, "mood", []string{"return user.get('mood') + ':' + args[0];"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := h.Call(context.Background(), e, "mood", []string{"today"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "happy:today" {
		t.Errorf("Call = %q", got)
	}
}

func TestCallUndefinedReturnIsEmptyString(t *testing.T) {
	h := NewHandler()
	e := &fakeEngine{}
	if err := h.Load(e, "noop", []string{"// no return"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := h.Call(context.Background(), e, "noop", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "" {
		t.Errorf("Call = %q, want empty string", got)
	}
}

func TestCallUnknownNameReturnsErrHandlerNotFound(t *testing.T) {
	h := NewHandler()
	_, err := h.Call(context.Background(), &fakeEngine{}, "missing", nil)
	if err != handlers.ErrHandlerNotFound {
		t.Errorf("err = %v, want ErrHandlerNotFound", err)
	}
}
