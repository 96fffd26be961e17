package handlers

import (
	"context"
	"testing"
)

type fakeEngine struct{ user string }

func (f *fakeEngine) CurrentUser() string        { return f.user }
func (f *fakeEngine) GetVariable(name string) string { return "" }

type fakeHandler struct{ loaded map[string][]string }

func newFakeHandler() *fakeHandler { return &fakeHandler{loaded: map[string][]string{}} }

func (h *fakeHandler) Load(e Engine, name string, code []string) error {
	h.loaded[name] = code
	return nil
}

func (h *fakeHandler) Call(ctx context.Context, e Engine, name string, args []string) (string, error) {
	return "called:" + name, nil
}

func TestRegistrySubroutineTakesPrecedence(t *testing.T) {
	r := NewRegistry()
	h := newFakeHandler()
	r.SetHandler("js", h)
	if err := r.Load(&fakeEngine{}, "js", "greet", []string{"return 1;"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.SetSubroutine("greet", func(ctx context.Context, e Engine, args []string) (string, error) {
		return "native", nil
	})

	got, err := r.Call(context.Background(), &fakeEngine{}, "greet", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "native" {
		t.Errorf("Call = %q, want subroutine to take precedence", got)
	}
}

func TestRegistryFallsBackToHandler(t *testing.T) {
	r := NewRegistry()
	h := newFakeHandler()
	r.SetHandler("js", h)
	r.Load(&fakeEngine{}, "js", "greet", []string{"return 1;"})

	got, err := r.Call(context.Background(), &fakeEngine{}, "greet", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "called:greet" {
		t.Errorf("Call = %q", got)
	}
}

func TestRegistryCallUnknownReturnsError(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Call(context.Background(), &fakeEngine{}, "nope", nil); err != ErrHandlerNotFound {
		t.Errorf("err = %v, want ErrHandlerNotFound", err)
	}
}

func TestRemoveHandlerPurgesLoadedMacros(t *testing.T) {
	r := NewRegistry()
	h := newFakeHandler()
	r.SetHandler("js", h)
	r.Load(&fakeEngine{}, "js", "greet", []string{"return 1;"})
	r.RemoveHandler("js")

	if r.Has("greet") {
		t.Errorf("greet should no longer be callable after RemoveHandler")
	}
	if _, err := r.Call(context.Background(), &fakeEngine{}, "greet", nil); err != ErrHandlerNotFound {
		t.Errorf("err = %v, want ErrHandlerNotFound", err)
	}
}

func TestRemoveSubroutine(t *testing.T) {
	r := NewRegistry()
	r.SetSubroutine("ping", func(ctx context.Context, e Engine, args []string) (string, error) { return "pong", nil })
	if !r.Has("ping") {
		t.Fatalf("expected ping to be registered")
	}
	r.RemoveSubroutine("ping")
	if r.Has("ping") {
		t.Errorf("ping should be gone after RemoveSubroutine")
	}
}
