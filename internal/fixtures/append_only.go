package fixtures

import (
	"context"

	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
)

const appendBatchSize = 50

var appendSchema = schema.MustNew(
	schema.Column{Name: "x", Type: schema.ColumnTypeString},
	schema.Column{Name: "y", Type: schema.ColumnTypeInt},
)

// appendBatch is n rows of (label, 0..n-1)
func appendBatch(label string, n int) (*table.Snapshot, error) {
	xs := make([]any, n)
	ys := make([]any, n)
	for i := 0; i < n; i++ {
		xs[i] = label
		ys[i] = int32(i)
	}
	return table.NewSnapshot(appendSchema, [][]any{xs, ys})
}

func runAppendOnly(ctx context.Context, e *engine.Engine, opts Options) error {
	blink, pub := e.TablePublisher("blink_table", appendSchema)
	appendOnly, err := e.BlinkToAppendOnly(blink)
	if err != nil {
		return err
	}

	start, err := appendBatch("Start", appendBatchSize)
	if err != nil {
		return err
	}
	if err := pub.Add(start); err != nil {
		return err
	}

	addMoreRows := engine.Function(func(ctx context.Context) error {
		end, err := appendBatch("End", appendBatchSize)
		if err != nil {
			return err
		}
		return pub.Add(end)
	})

	return setAll(e,
		"blink_table", blink,
		"append_only", appendOnly,
		"add_more_rows", addMoreRows,
	)
}
