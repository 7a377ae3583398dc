package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leengari/mini-tables/internal/domain/data"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
)

// sqlTypes maps column types to SQLite storage classes
var sqlTypes = map[schema.ColumnType]string{
	schema.ColumnTypeString:  "TEXT",
	schema.ColumnTypeByte:    "INTEGER",
	schema.ColumnTypeShort:   "INTEGER",
	schema.ColumnTypeInt:     "INTEGER",
	schema.ColumnTypeLong:    "INTEGER",
	schema.ColumnTypeFloat:   "REAL",
	schema.ColumnTypeDouble:  "REAL",
	schema.ColumnTypeBool:    "INTEGER",
	schema.ColumnTypeChar:    "TEXT",
	schema.ColumnTypeDecimal: "TEXT",
	schema.ColumnTypeBigInt:  "TEXT",
	schema.ColumnTypeInstant: "TEXT",
}

// ToSQLite writes every table into the SQLite file at path, one SQL table
// per namespace table. Existing tables of the same name are replaced.
func ToSQLite(ctx context.Context, eng *engine.Engine, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	count := 0
	for _, v := range eng.Variables() {
		if v.Type != "table" {
			continue
		}
		t, err := eng.Table(v.Name)
		if err != nil {
			return err
		}
		if err := writeSQLTable(ctx, conn, v.Name, t.Snapshot()); err != nil {
			return fmt.Errorf("export table %s: %w", v.Name, err)
		}
		count++
	}

	slog.Info("Namespace exported to sqlite", slog.String("path", path), slog.Int("table_count", count))
	return nil
}

func writeSQLTable(ctx context.Context, conn *sql.DB, name string, snap *table.Snapshot) error {
	// _row keeps column-less tables representable
	cols := snap.Schema().Columns

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return err
	}

	defs := []string{`"_row" INTEGER PRIMARY KEY`}
	placeholders := []string{"?"}
	for _, col := range cols {
		def := quoteIdent(col.Name) + " " + sqlTypes[col.Type]
		if col.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
		placeholders = append(placeholders, "?")
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quoteIdent(name), strings.Join(placeholders, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols)+1)
	for r := 0; r < snap.NumRows(); r++ {
		args[0] = r
		for c := range cols {
			args[c+1] = sqlValue(snap.ColumnAt(c)[r])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	return tx.Commit()
}

// sqlValue converts a cell into a driver value
func sqlValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int8, int16, int32, int64, float32, float64, string:
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	// decimal, bigint and char keep their exact text form
	return data.Format(v)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
