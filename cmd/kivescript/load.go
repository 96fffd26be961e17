package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/korea/kivescript/config"
	"github.com/korea/kivescript/engine"
	"github.com/korea/kivescript/handlers/goja"
	"github.com/korea/kivescript/handlers/noop"
)

func buildEngine(dir string, strict, utf8 bool) (*engine.Engine, error) {
	cfg := config.NewBuilder().Strict(strict).UTF8(utf8).Build()
	e := engine.New(cfg, nil, nil)
	e.SetHandler("javascript", goja.NewHandler())
	e.SetHandler("__unknown__", &noop.Handler{Silent: true})

	files, err := filepath.Glob(filepath.Join(dir, "*.rive"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .rive files found in %s", dir)
	}
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		lines := strings.Split(string(raw), "\n")
		if err := e.LoadLines(filepath.Base(path), lines); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := e.SortReplies(); err != nil {
		return nil, err
	}
	return e, nil
}
