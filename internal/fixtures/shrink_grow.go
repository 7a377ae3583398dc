package fixtures

import (
	"context"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/query/operations"
	"github.com/leengari/mini-tables/internal/refresh"
)

const (
	initialSize = 50
	shrunkSize  = 30
	grownSize   = 70
)

func runShrinkGrow(ctx context.Context, e *engine.Engine, opts Options) error {
	size := refresh.NewCell(initialSize)

	generator := func(ctx context.Context) (*table.Snapshot, error) {
		return operations.Update(operations.EmptyTable(size.Load()), e.Scope(), "X = ii")
	}
	t, err := e.FunctionGeneratedTable(ctx, "shrink_grow", generator, opts.RefreshInterval)
	if err != nil {
		return err
	}

	shrink := engine.Function(func(ctx context.Context) error {
		size.Store(shrunkSize)
		return nil
	})
	grow := engine.Function(func(ctx context.Context) error {
		size.Store(grownSize)
		return nil
	})

	return setAll(e,
		"shrink_grow", t,
		"shrink", shrink,
		"grow", grow,
	)
}
