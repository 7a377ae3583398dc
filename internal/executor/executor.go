// Package executor runs namespace commands against an engine. The TCP
// server and the REPL both go through Execute.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/query/operations"
)

// Operations understood by Execute
const (
	OpList    = "list"
	OpGet     = "get"
	OpCall    = "call"
	OpFigure  = "figure"
	OpRefresh = "refresh"
)

// Command is one request against the namespace
type Command struct {
	Op      string   `json:"op"`
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns,omitempty"` // get: projection
	Where   string   `json:"where,omitempty"`   // get: filter formula
	Limit   int      `json:"limit,omitempty"`   // get: max rows
}

// Execute runs cmd. Errors are returned, not folded into the result.
func Execute(ctx context.Context, eng *engine.Engine, cmd Command) (*Result, error) {
	switch strings.ToLower(cmd.Op) {
	case OpList:
		vars := eng.Variables()
		return &Result{
			Variables: vars,
			Message:   fmt.Sprintf("%d variables", len(vars)),
		}, nil

	case OpGet:
		t, err := eng.Table(cmd.Name)
		if err != nil {
			return nil, err
		}
		snap, err := Query(eng, t.Snapshot(), cmd)
		if err != nil {
			return nil, err
		}
		res := TableResult(snap, cmd.Limit)
		res.Tick = t.Tick()
		return res, nil

	case OpCall:
		if err := eng.Call(ctx, cmd.Name); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("called %s", cmd.Name)}, nil

	case OpFigure:
		f, err := eng.FigureByName(cmd.Name)
		if err != nil {
			return nil, err
		}
		return &Result{Figure: f}, nil

	case OpRefresh:
		if err := eng.Refresh(ctx, cmd.Name); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("refreshed %s", cmd.Name)}, nil
	}
	return nil, fmt.Errorf("unsupported operation: %q", cmd.Op)
}

// Query applies the command's filter and projection to snap
func Query(eng *engine.Engine, snap *table.Snapshot, cmd Command) (*table.Snapshot, error) {
	var err error
	if cmd.Where != "" {
		if snap, err = operations.Where(snap, eng.Scope(), cmd.Where); err != nil {
			return nil, err
		}
	}
	if len(cmd.Columns) > 0 {
		if snap, err = operations.View(snap, cmd.Columns...); err != nil {
			return nil, err
		}
	}
	return snap, nil
}
