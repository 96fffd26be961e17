// Package handlers defines the object-macro plug-in surface: one
// ObjectHandler per programming language named in a "> object NAME
// LANG" block, plus a Subroutine registry for natively-implemented
// callables that take precedence over any language handler of the
// same name. This mirrors core.Interpreter / core.ActionSource.Compile
// from the teacher's action-compilation model, adapted from "compile
// once, execute with bindings" to "load a body once, call by name
// with string arguments".
package handlers

import (
	"context"
	"errors"
)

// ErrHandlerNotFound occurs when Call is asked to dispatch to a
// language that has no registered ObjectHandler.
var ErrHandlerNotFound = errors.New("kivescript: handler not found")

// Engine is the minimal surface object macros need from the engine
// that's calling them: which user is being served, and access to bot
// variables. It's implemented by a per-call adapter inside the engine
// package; declared here to avoid an import cycle between handlers
// and engine.
type Engine interface {
	CurrentUser() string
	GetVariable(name string) string
}

// ObjectHandler loads and calls object-macro bodies written in one
// language. The context passed to Call carries the deadline of the
// Reply call the macro was invoked from, so a handler running
// untrusted script can honor cancellation.
type ObjectHandler interface {
	// Load compiles or stores the macro body under name so later
	// Call invocations can execute it.
	Load(e Engine, name string, code []string) error
	// Call invokes a previously Loaded macro, returning its string
	// result.
	Call(ctx context.Context, e Engine, name string, args []string) (string, error)
}

// Subroutine is a natively implemented callable. Subroutines take
// precedence over language handlers when a <call> name collides with
// both.
type Subroutine func(ctx context.Context, e Engine, args []string) (string, error)

// Registry tracks handlers by language and subroutines by name.
type Registry struct {
	handlers    map[string]ObjectHandler
	subroutines map[string]Subroutine
	// objectLanguages remembers which language handled each loaded
	// macro name, so RemoveHandler can purge them all when a
	// language is unregistered.
	objectLanguages map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:        map[string]ObjectHandler{},
		subroutines:     map[string]Subroutine{},
		objectLanguages: map[string]string{},
	}
}

// SetHandler registers h under lang, replacing any previous handler
// for that language.
func (r *Registry) SetHandler(lang string, h ObjectHandler) {
	r.handlers[lang] = h
}

// RemoveHandler unregisters the handler for lang and purges every
// object macro that had been loaded through it, mirroring the
// original engine's removeHandler behavior.
func (r *Registry) RemoveHandler(lang string) {
	delete(r.handlers, lang)
	for name, l := range r.objectLanguages {
		if l == lang {
			delete(r.objectLanguages, name)
		}
	}
}

// SetSubroutine registers a native callable under name.
func (r *Registry) SetSubroutine(name string, fn Subroutine) {
	r.subroutines[name] = fn
}

// RemoveSubroutine unregisters the native callable under name.
func (r *Registry) RemoveSubroutine(name string) {
	delete(r.subroutines, name)
}

// Load records that name is implemented in lang and dispatches to
// that language's Load.
func (r *Registry) Load(e Engine, lang, name string, code []string) error {
	h, ok := r.handlers[lang]
	if !ok {
		return ErrHandlerNotFound
	}
	if err := h.Load(e, name, code); err != nil {
		return err
	}
	r.objectLanguages[name] = lang
	return nil
}

// Call dispatches name to a registered Subroutine if one exists,
// otherwise to whichever language handler last Loaded that name.
func (r *Registry) Call(ctx context.Context, e Engine, name string, args []string) (string, error) {
	if fn, ok := r.subroutines[name]; ok {
		return fn(ctx, e, args)
	}
	lang, ok := r.objectLanguages[name]
	if !ok {
		return "", ErrHandlerNotFound
	}
	h, ok := r.handlers[lang]
	if !ok {
		return "", ErrHandlerNotFound
	}
	return h.Call(ctx, e, name, args)
}

// Has reports whether name is callable, either as a subroutine or a
// loaded object macro.
func (r *Registry) Has(name string) bool {
	if _, ok := r.subroutines[name]; ok {
		return true
	}
	_, ok := r.objectLanguages[name]
	return ok
}
