// Package script runs Starlark fixture scripts against an engine. Scripts
// see the table primitives as builtins, and their top-level tables,
// figures and functions end up in the engine's namespace.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"

	"github.com/leengari/mini-tables/internal/engine"
)

const ctxKey = "context"

// Extension marks files RunDir picks up
const Extension = ".star"

func init() {
	resolve.AllowSet = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
}

// Runner executes scripts against one engine
type Runner struct {
	eng      *engine.Engine
	interval time.Duration
}

// NewRunner creates a runner. interval is the refresh interval used by
// function_generated_table when the script does not pass one.
func NewRunner(eng *engine.Engine, interval time.Duration) *Runner {
	return &Runner{eng: eng, interval: interval}
}

// RunSource executes src as the script called name
func (r *Runner) RunSource(ctx context.Context, name, src string) error {
	return r.eng.RunScript(ctx, name, func(ctx context.Context, e *engine.Engine) error {
		return r.exec(ctx, name, src)
	})
}

// RunFile executes one script file; its base name becomes the script name
func (r *Runner) RunFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.RunSource(ctx, name, string(src))
}

// RunDir executes every script in dir in lexical order and returns the
// names that ran. The first failure stops the run.
func (r *Runner) RunDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read script dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == Extension {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	ran := make([]string, 0, len(files))
	for _, f := range files {
		if err := r.RunFile(ctx, filepath.Join(dir, f)); err != nil {
			return ran, err
		}
		ran = append(ran, strings.TrimSuffix(f, Extension))
	}
	return ran, nil
}

func (r *Runner) exec(ctx context.Context, name, src string) error {
	thread, done := r.newThread(ctx, name)
	defer done()

	globals, err := starlark.ExecFile(thread, name+Extension, src, r.builtins())
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return fmt.Errorf("%s", evalErr.Backtrace())
		}
		return err
	}
	return r.register(name, globals)
}

// register publishes the script's tables, figures and functions. Names
// starting with an underscore stay private to the script.
func (r *Runner) register(script string, globals starlark.StringDict) error {
	for _, name := range globals.Keys() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		var v any
		switch g := globals[name].(type) {
		case *tableValue:
			v = g.t
		case *figureValue:
			v = g.f
		case *starlark.Function:
			v = r.callback(name, g)
		default:
			continue
		}
		if err := r.eng.Set(name, v); err != nil {
			return err
		}
		slog.Debug("script variable registered", "script", script, "name", name)
	}
	return nil
}

func (r *Runner) callback(name string, fn *starlark.Function) engine.Function {
	return func(ctx context.Context) error {
		thread, done := r.newThread(ctx, name)
		defer done()
		_, err := starlark.Call(thread, fn, nil, nil)
		return err
	}
}

// newThread returns a thread carrying ctx. Cancelling ctx cancels the
// thread; done releases that hook.
func (r *Runner) newThread(ctx context.Context, name string) (*starlark.Thread, func()) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			slog.Info(msg, "script", name)
		},
	}
	thread.SetLocal(ctxKey, ctx)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	return thread, func() { stop() }
}

func threadContext(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(ctxKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}
