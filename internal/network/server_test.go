package network

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/query/operations"
)

type response struct {
	Columns   []string          `json:"columns"`
	Rows      []map[string]any  `json:"rows"`
	Total     int               `json:"total"`
	Tick      uint64            `json:"tick"`
	Variables []engine.Variable `json:"variables"`
	Figure    json.RawMessage   `json:"figure"`
	Message   string            `json:"message"`
	Error     string            `json:"error"`
}

type client struct {
	t    *testing.T
	conn net.Conn
	in   *bufio.Reader
}

func (c *client) send(req Request) {
	c.t.Helper()
	require.NoError(c.t, json.NewEncoder(c.conn).Encode(req))
}

func (c *client) read() response {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	line, err := c.in.ReadBytes('\n')
	require.NoError(c.t, err)
	var res response
	require.NoError(c.t, json.Unmarshal(line, &res))
	return res
}

func (c *client) roundTrip(req Request) response {
	c.t.Helper()
	c.send(req)
	return c.read()
}

// startServer serves e on a random local port until the test ends
func startServer(t *testing.T, e *engine.Engine) *client {
	t.Helper()
	s := NewServer(e)
	require.NoError(t, s.Listen("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, in: bufio.NewReader(conn)}
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New()
	t.Cleanup(e.Close)

	tbl, err := e.NewTable(
		operations.StringCol("Strings", "A", "B", nil),
		operations.IntCol("Ints", 1, 2, 3),
	)
	require.NoError(t, err)
	require.NoError(t, e.Set("letters", tbl))

	fig, err := e.Figure().PlotXY("Test", tbl, "Ints", "Ints").Show()
	require.NoError(t, err)
	require.NoError(t, e.Set("letters_plot", fig))
	return e
}

func TestServerRoundTrip(t *testing.T) {
	c := startServer(t, newEngine(t))

	list := c.roundTrip(Request{Op: "list"})
	assert.Empty(t, list.Error)
	assert.Equal(t, []engine.Variable{
		{Name: "letters", Type: "table"},
		{Name: "letters_plot", Type: "figure"},
	}, list.Variables)

	get := c.roundTrip(Request{Op: "get", Name: "letters"})
	assert.Empty(t, get.Error)
	assert.Equal(t, []string{"Strings", "Ints"}, get.Columns)
	require.Len(t, get.Rows, 3)
	assert.Equal(t, "B", get.Rows[1]["Strings"])
	assert.Nil(t, get.Rows[2]["Strings"])
	assert.Equal(t, float64(3), get.Rows[2]["Ints"])

	fig := c.roundTrip(Request{Op: "figure", Name: "letters_plot"})
	assert.Empty(t, fig.Error)
	assert.Contains(t, string(fig.Figure), `"name":"Test"`)

	missing := c.roundTrip(Request{Op: "get", Name: "nope"})
	assert.Contains(t, missing.Error, "nope")

	// the connection survives errors
	again := c.roundTrip(Request{Op: "get", Name: "letters", Limit: 1})
	assert.Len(t, again.Rows, 1)
	assert.Equal(t, 3, again.Total)
}

func TestServerSubscribe(t *testing.T) {
	e := newEngine(t)
	live, writer := table.NewLive("live", table.KindGenerated, operations.EmptyTable(0))
	require.NoError(t, e.Set("live", live))

	c := startServer(t, e)
	c.send(Request{Op: OpSubscribe, Name: "live"})

	first := c.read()
	assert.Empty(t, first.Error)
	assert.Equal(t, 0, first.Total)
	assert.Equal(t, uint64(0), first.Tick)

	next, err := operations.Update(operations.EmptyTable(4), e.Scope(), "X = ii")
	require.NoError(t, err)
	// schema changes are rejected, so publish a same-shaped snapshot
	require.Error(t, writer.Replace(next, next))

	bigger := operations.EmptyTable(5)
	require.NoError(t, writer.Replace(bigger, bigger))

	tick := c.read()
	assert.Equal(t, 5, tick.Total)
	assert.Equal(t, uint64(1), tick.Tick)
}

func TestServerSubscribeStartsAtCurrentTick(t *testing.T) {
	e := newEngine(t)
	live, writer := table.NewLive("live", table.KindGenerated, operations.EmptyTable(0))
	require.NoError(t, e.Set("live", live))
	for n := 1; n <= 2; n++ {
		snap := operations.EmptyTable(n)
		require.NoError(t, writer.Replace(snap, snap))
	}

	c := startServer(t, e)
	c.send(Request{Op: OpSubscribe, Name: "live"})

	first := c.read()
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, uint64(2), first.Tick)

	snap := operations.EmptyTable(7)
	require.NoError(t, writer.Replace(snap, snap))

	next := c.read()
	assert.Equal(t, 7, next.Total)
	assert.Equal(t, uint64(3), next.Tick)
}

func TestServerSubscribeUnknownTable(t *testing.T) {
	c := startServer(t, newEngine(t))
	res := c.roundTrip(Request{Op: OpSubscribe, Name: "nope"})
	assert.Contains(t, res.Error, "nope")
}

func TestServerInvalidRequest(t *testing.T) {
	c := startServer(t, newEngine(t))
	_, err := c.conn.Write([]byte("{not json}\n"))
	require.NoError(t, err)
	res := c.read()
	assert.Contains(t, res.Error, "invalid request format")
}
