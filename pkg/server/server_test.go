package server

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igamenovoer/blender-remote/pkg/dispatch"
	"github.com/igamenovoer/blender-remote/pkg/host"
	"github.com/igamenovoer/blender-remote/pkg/persist"
	"github.com/igamenovoer/blender-remote/pkg/protocol"
	"github.com/igamenovoer/blender-remote/pkg/router"
)

func newTestServer(t *testing.T) (*Server, context.Context, context.CancelFunc) {
	t.Helper()
	w := dispatch.NewWorker(4)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	h := host.New(false, "/usr/bin/blender")
	rt := router.New(w, h, persist.New(), "tcp://127.0.0.1:0", nil)

	s := New("127.0.0.1:0", rt)
	require.NoError(t, s.Listen())

	serveCtx, serveCancel := context.WithCancel(ctx)
	go func() { _ = s.Serve(serveCtx) }()

	return s, serveCtx, func() { serveCancel(); cancel() }
}

func roundTrip(t *testing.T, addr string, req any) protocol.Response {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	body, err := json.Marshal(req)
	require.NoError(t, err)
	_, err = conn.Write(body)
	require.NoError(t, err)
	if c, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = c.CloseWrite()
	}

	var resp protocol.Response
	dec := json.NewDecoder(conn)
	require.NoError(t, dec.Decode(&resp))
	return resp
}

func TestServer_SceneInfoRoundTrip(t *testing.T) {
	s, _, stop := newTestServer(t)
	defer stop()

	resp := roundTrip(t, s.BoundAddr().String(), protocol.Request{Type: "get_scene_info"})
	assert.Equal(t, protocol.StatusSuccess, resp.Status)
}

func TestServer_LegacyShape(t *testing.T) {
	s, _, stop := newTestServer(t)
	defer stop()

	resp := roundTrip(t, s.BoundAddr().String(), map[string]any{"code": "print('hi')"})
	assert.Equal(t, "OK", resp.Response)
}

func TestServer_InvalidJSON(t *testing.T) {
	s, _, stop := newTestServer(t)
	defer stop()

	conn, err := net.DialTimeout("tcp", s.BoundAddr().String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte(`{not json`))
	require.NoError(t, err)
	if c, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = c.CloseWrite()
	}

	var resp protocol.Response
	dec := json.NewDecoder(conn)
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "invalid JSON")
}

func TestServer_UnknownCommand(t *testing.T) {
	s, _, stop := newTestServer(t)
	defer stop()

	resp := roundTrip(t, s.BoundAddr().String(), protocol.Request{Type: "bogus"})
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "Unknown command type")
}

func TestServer_ConcurrentConnectionsAreIndependent(t *testing.T) {
	s, _, stop := newTestServer(t)
	defer stop()

	results := make(chan protocol.Response, 2)
	go func() { results <- roundTrip(t, s.BoundAddr().String(), protocol.Request{Type: "get_scene_info"}) }()
	go func() { results <- roundTrip(t, s.BoundAddr().String(), protocol.Request{Type: "get_scene_info"}) }()

	for i := 0; i < 2; i++ {
		resp := <-results
		assert.Equal(t, protocol.StatusSuccess, resp.Status)
	}
}
