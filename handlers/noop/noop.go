// Package noop provides a trivial ObjectHandler that ignores every
// macro body and always returns an empty string, useful in tests that
// need a handler registered for a language without exercising real
// code execution.
package noop

import (
	"context"

	"github.com/korea/kivescript/handlers"
	ilog "github.com/korea/kivescript/internal/log"
)

// Handler is a no-op ObjectHandler.
type Handler struct {
	// Silent suppresses the warning logged on every Call.
	Silent bool
}

func (h *Handler) Load(e handlers.Engine, name string, code []string) error {
	return nil
}

func (h *Handler) Call(ctx context.Context, e handlers.Engine, name string, args []string) (string, error) {
	if !h.Silent {
		ilog.Logf("noop: call to %q ignored", name)
	}
	return "", nil
}
