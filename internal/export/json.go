// Package export writes the current snapshot of every namespace table to
// disk, either as a JSON directory or as a SQLite file
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/executor"
)

const formatVersion = 1

// ToDir writes <dir>/meta.json plus meta.json and data.json under
// <dir>/<variable> for each table. Figures go to <dir>/figures/<name>.json.
func ToDir(ctx context.Context, eng *engine.Engine, dir string) error {
	vars := eng.Variables()
	meta := NamespaceMeta{Version: formatVersion}
	var written int64

	for _, v := range vars {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch v.Type {
		case "table":
			t, err := eng.Table(v.Name)
			if err != nil {
				return err
			}
			n, err := saveTable(filepath.Join(dir, v.Name), v.Name, t)
			if err != nil {
				return fmt.Errorf("failed to save table %s: %w", v.Name, err)
			}
			written += n
			meta.Tables = append(meta.Tables, v.Name)

		case "figure":
			f, err := eng.FigureByName(v.Name)
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(f, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal figure %s: %w", v.Name, err)
			}
			if err := writeAtomic(filepath.Join(dir, "figures", v.Name+".json"), raw); err != nil {
				return err
			}
			meta.Figures = append(meta.Figures, v.Name)
		}
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal namespace meta: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, "meta.json"), raw); err != nil {
		return err
	}

	slog.Info("Namespace exported",
		slog.String("path", dir),
		slog.Int("table_count", len(meta.Tables)),
		slog.Int("figure_count", len(meta.Figures)),
		slog.String("size", humanize.Bytes(uint64(written))),
	)
	return nil
}

// saveTable persists one snapshot as meta.json and data.json, returning
// the bytes written
func saveTable(path, name string, t *table.Table) (int64, error) {
	snap := t.Snapshot()

	meta := TableMeta{
		Name:     name,
		Kind:     string(t.Kind()),
		Tick:     t.Tick(),
		RowCount: snap.NumRows(),
		Columns:  make([]ColumnMeta, len(snap.Schema().Columns)),
	}
	for i, col := range snap.Schema().Columns {
		meta.Columns[i] = ColumnMeta{Name: col.Name, Type: string(col.Type), NotNull: col.NotNull}
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal table meta: %w", err)
	}
	dataBytes, err := json.MarshalIndent(executor.TableResult(snap, 0).Rows, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal rows: %w", err)
	}

	if err := writeAtomic(filepath.Join(path, "meta.json"), metaBytes); err != nil {
		return 0, err
	}
	if err := writeAtomic(filepath.Join(path, "data.json"), dataBytes); err != nil {
		return 0, err
	}

	slog.Debug("Table saved",
		slog.String("table", name),
		slog.String("path", path),
		slog.Int("row_count", snap.NumRows()),
	)
	return int64(len(metaBytes) + len(dataBytes)), nil
}

// writeAtomic writes to a temp file and renames it over path
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp → %s: %w", path, err)
	}
	return nil
}
