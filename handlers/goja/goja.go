// Package goja implements handlers.ObjectHandler using goja, a pure
// Go ECMAScript 5.1+ runtime. A loaded macro body is wrapped in a
// function taking a "user" object and an "args" array: user.name is
// the current username and user.get(key) reads a bot variable, so
// scripts can call e.g. user.get("name") and return a string.
package goja

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/korea/kivescript/handlers"
)

// Handler compiles and runs object-macro bodies as ECMAScript.
type Handler struct {
	programs map[string]*goja.Program
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler {
	return &Handler{programs: map[string]*goja.Program{}}
}

// Load compiles code as the body of a JavaScript function and stores
// it under name.
func (h *Handler) Load(e handlers.Engine, name string, code []string) error {
	src := "(function(user, args) {\n" + strings.Join(code, "\n") + "\n})"
	prog, err := goja.Compile(name, src, true)
	if err != nil {
		return fmt.Errorf("kivescript/handlers/goja: compiling %q: %w", name, err)
	}
	h.programs[name] = prog
	return nil
}

// Call runs the previously Loaded program for name, passing a "user"
// helper object bound to the current user and args as a JS array.
// The script's return value is coerced to a string; a JS undefined or
// null return is treated as empty.
func (h *Handler) Call(ctx context.Context, e handlers.Engine, name string, args []string) (string, error) {
	prog, ok := h.programs[name]
	if !ok {
		return "", handlers.ErrHandlerNotFound
	}

	vm := goja.New()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	fnVal, err := vm.RunProgram(prog)
	if err != nil {
		return "", err
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return "", fmt.Errorf("kivescript/handlers/goja: %q did not compile to a function", name)
	}

	user := vm.NewObject()
	user.Set("get", func(key string) string { return e.GetVariable(key) })
	user.Set("name", e.CurrentUser())

	jsArgs := make([]interface{}, len(args))
	for i, a := range args {
		jsArgs[i] = a
	}

	result, err := fn(goja.Undefined(), user, vm.ToValue(jsArgs))
	if err != nil {
		return "", err
	}
	if goja.IsUndefined(result) || goja.IsNull(result) {
		return "", nil
	}
	return result.String(), nil
}

var _ handlers.ObjectHandler = (*Handler)(nil)
