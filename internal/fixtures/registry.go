// Package fixtures holds the start-up scripts that seed the namespace
// with tables, figures and callbacks for UI and integration tests.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/leengari/mini-tables/internal/engine"
)

// Options tunes the scripts
type Options struct {
	// RefreshInterval drives generated and time tables
	RefreshInterval time.Duration
}

// DefaultOptions match the values the fixtures were designed around
func DefaultOptions() Options {
	return Options{RefreshInterval: time.Second}
}

// Script is one independent fixture script
type Script struct {
	Name string
	Run  func(ctx context.Context, e *engine.Engine, opts Options) error
}

// Scripts lists every fixture script in start-up order
var Scripts = []Script{
	{Name: "tables", Run: runTables},
	{Name: "multiselect", Run: runMultiselect},
	{Name: "plots", Run: runPlots},
	{Name: "types", Run: runTypes},
	{Name: "append_only", Run: runAppendOnly},
	{Name: "shrink_grow", Run: runShrinkGrow},
}

// Names returns the script names in start-up order
func Names() []string {
	names := make([]string, len(Scripts))
	for i, s := range Scripts {
		names[i] = s.Name
	}
	return names
}

// RunAll runs the named scripts sequentially, or every script when names
// is empty. The first failure aborts with the script's error.
func RunAll(ctx context.Context, e *engine.Engine, opts Options, names ...string) error {
	selected := Scripts
	if len(names) > 0 {
		byName := make(map[string]Script, len(Scripts))
		for _, s := range Scripts {
			byName[s.Name] = s
		}
		selected = selected[:0:0]
		for _, name := range names {
			s, ok := byName[name]
			if !ok {
				return fmt.Errorf("unknown fixture script %q", name)
			}
			selected = append(selected, s)
		}
	}

	for _, s := range selected {
		run := s.Run
		err := e.RunScript(ctx, s.Name, func(ctx context.Context, e *engine.Engine) error {
			return run(ctx, e, opts)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// setAll registers variables in order, stopping at the first error
func setAll(e *engine.Engine, vars ...any) error {
	if len(vars)%2 != 0 {
		return fmt.Errorf("setAll: odd number of arguments")
	}
	for i := 0; i < len(vars); i += 2 {
		if err := e.Set(vars[i].(string), vars[i+1]); err != nil {
			return err
		}
	}
	return nil
}
