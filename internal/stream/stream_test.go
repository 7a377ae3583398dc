package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
)

var xySchema = schema.MustNew(
	schema.Column{Name: "x", Type: schema.ColumnTypeString},
	schema.Column{Name: "y", Type: schema.ColumnTypeInt},
)

func batch(t *testing.T, label string, n int) *table.Snapshot {
	t.Helper()
	xs := make([]any, n)
	ys := make([]any, n)
	for i := range xs {
		xs[i] = label
		ys[i] = i
	}
	snap, err := table.NewSnapshot(xySchema, [][]any{xs, ys})
	require.NoError(t, err)
	return snap
}

func column(t *testing.T, snap *table.Snapshot, name string) []any {
	t.Helper()
	values, err := snap.Column(name)
	require.NoError(t, err)
	return values
}

func TestBlinkToAppendOnlyKeepsEveryBatch(t *testing.T) {
	blink, pub := TablePublisher("blink_table", xySchema)
	appendOnly, err := BlinkToAppendOnly(blink)
	require.NoError(t, err)

	require.NoError(t, pub.Add(batch(t, "Start", 50)))
	require.NoError(t, pub.Add(batch(t, "End", 50)))

	assert.Equal(t, 50, blink.Size())
	assert.Equal(t, "End", column(t, blink.Snapshot(), "x")[0])

	require.Equal(t, 100, appendOnly.Size())
	xs := column(t, appendOnly.Snapshot(), "x")
	ys := column(t, appendOnly.Snapshot(), "y")
	for i := 0; i < 100; i++ {
		want := "Start"
		if i >= 50 {
			want = "End"
		}
		assert.Equal(t, want, xs[i], "row %d", i)
		assert.Equal(t, int32(i%50), ys[i], "row %d", i)
	}
	assert.Equal(t, table.KindAppendOnly, appendOnly.Kind())
}

func TestBlinkToAppendOnlyDoesNotReplay(t *testing.T) {
	blink, pub := TablePublisher("blink", xySchema)
	require.NoError(t, pub.Add(batch(t, "before", 5)))

	appendOnly, err := BlinkToAppendOnly(blink)
	require.NoError(t, err)
	assert.Equal(t, 0, appendOnly.Size())

	for i := 0; i < 3; i++ {
		require.NoError(t, pub.Add(batch(t, "after", 2)))
	}
	assert.Equal(t, 6, appendOnly.Size())
	assert.Equal(t, uint64(3), appendOnly.Tick())
}

func TestBlinkToAppendOnlyRejectsOtherKinds(t *testing.T) {
	static := table.NewStatic("s", batch(t, "a", 1))
	_, err := BlinkToAppendOnly(static)
	assert.Error(t, err)
}

func TestPublisherSchemaMismatch(t *testing.T) {
	blink, pub := TablePublisher("blink", xySchema)
	require.NoError(t, pub.Add(batch(t, "ok", 3)))

	other := schema.MustNew(schema.Column{Name: "x", Type: schema.ColumnTypeString})
	bad, err := table.NewSnapshot(other, [][]any{{"nope"}})
	require.NoError(t, err)

	err = pub.Add(bad)
	var sme *errors.SchemaMismatchError
	assert.ErrorAs(t, err, &sme)
	assert.Equal(t, 3, blink.Size())
	assert.Equal(t, uint64(1), blink.Tick())
}

func TestPublisherClose(t *testing.T) {
	_, pub := TablePublisher("blink", xySchema)
	assert.True(t, pub.IsAlive())
	assert.NotEmpty(t, pub.ID())

	pub.Close()
	pub.Close()
	assert.False(t, pub.IsAlive())
	assert.ErrorIs(t, pub.Add(batch(t, "late", 1)), errors.ErrPublisherClosed)
}
