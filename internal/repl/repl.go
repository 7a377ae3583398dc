// Package repl is an interactive shell over the namespace
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/leengari/mini-tables/internal/domain/data"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/executor"
)

// DefaultLimit caps the rows show prints unless a count is given
const DefaultLimit = 20

const help = `Commands:
  ls                      list variables
  show <table> [n]        print the first n rows (default 20, 0 for all)
  where <table> <cond>    print rows matching a formula condition
  call <function>         run a callback such as add_more_rows
  figure <figure>         describe a figure's series
  refresh <table>         force one tick of a generated or time table
  exit, \q                quit`

// Start reads commands from in until EOF or exit
func Start(ctx context.Context, eng *engine.Engine, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Welcome to mini-tables")
	fmt.Fprintln(out, "Type 'help' for commands, 'exit' or '\\q' to quit.")

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "\\q" {
			return
		}
		if ctx.Err() != nil {
			return
		}
		Eval(ctx, eng, line, out)
	}
}

// Eval runs one command line and prints its result
func Eval(ctx context.Context, eng *engine.Engine, line string, out io.Writer) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	if cmd == "help" {
		fmt.Fprintln(out, help)
		return
	}
	if cmd == "ls" || cmd == "list" {
		listVariables(eng, out)
		return
	}

	if len(args) == 0 {
		fmt.Fprintf(out, "Error: %s needs a name\n", cmd)
		return
	}
	c := executor.Command{Name: args[0]}

	switch cmd {
	case "show":
		c.Op = executor.OpGet
		c.Limit = DefaultLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				fmt.Fprintf(out, "Error: invalid row count %q\n", args[1])
				return
			}
			c.Limit = n
		}
	case "where":
		c.Op = executor.OpGet
		rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))
		c.Where = strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		if c.Where == "" {
			fmt.Fprintln(out, "Error: where needs a condition")
			return
		}
	case "call":
		c.Op = executor.OpCall
	case "figure":
		c.Op = executor.OpFigure
	case "refresh":
		c.Op = executor.OpRefresh
	default:
		fmt.Fprintf(out, "Error: unknown command %q (try help)\n", cmd)
		return
	}

	result, err := executor.Execute(ctx, eng, c)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	PrintResult(out, result)
}

func listVariables(eng *engine.Engine, out io.Writer) {
	tw := newTable(out, []string{"name", "type", "kind", "rows"})
	for _, v := range eng.Variables() {
		kind, rows := "", ""
		if v.Type == "table" {
			if t, err := eng.Table(v.Name); err == nil {
				kind = string(t.Kind())
				rows = humanize.Comma(int64(t.Size()))
			}
		}
		tw.Append([]string{v.Name, v.Type, kind, rows})
	}
	tw.Render()
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(out)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	return tw
}

// PrintResult renders a result as text
func PrintResult(w io.Writer, res *executor.Result) {
	if res.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
		return
	}

	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}

	if res.Figure != nil {
		tw := newTable(w, []string{"chart", "series", "style", "visible", "x", "y"})
		for i, chart := range res.Figure.Charts {
			for _, s := range chart.Series {
				cols := make([]string, 2)
				for j := 0; j < len(s.Sources) && j < 2; j++ {
					cols[j] = s.Sources[j].Table + "." + s.Sources[j].ColumnName
				}
				tw.Append([]string{strconv.Itoa(i), s.Name, string(s.PlotStyle), strconv.FormatBool(s.Visible), cols[0], cols[1]})
			}
		}
		if res.Figure.Title != "" {
			tw.SetCaption(true, res.Figure.Title)
		}
		tw.Render()
	}

	if len(res.Columns) > 0 {
		header := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			// Header - show type if metadata available
			if i < len(res.Metadata) && res.Metadata[i].Type != "" {
				header[i] = fmt.Sprintf("%s (%s)", col, res.Metadata[i].Type)
			} else {
				header[i] = col
			}
		}
		tw := newTable(w, header)
		for _, row := range res.Rows {
			cells := make([]string, len(res.Columns))
			for i, col := range res.Columns {
				val, ok := row.Get(col)
				if !ok || val == nil {
					cells[i] = "NULL"
				} else {
					cells[i] = data.Format(val)
				}
			}
			tw.Append(cells)
		}
		tw.SetCaption(true, fmt.Sprintf("%s of %s rows, tick %d",
			humanize.Comma(int64(len(res.Rows))), humanize.Comma(int64(res.Total)), res.Tick))
		tw.Render()
	}
}
