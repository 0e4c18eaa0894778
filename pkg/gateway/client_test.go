package gateway

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igamenovoer/blender-remote/pkg/protocol"
)

// fakeBridge starts a minimal one-shot TCP listener that decodes one
// request and writes back a canned response, standing in for C2 in
// client tests.
func fakeBridge(t *testing.T, resp protocol.Response) (host string, port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var req protocol.Request
		dec := json.NewDecoder(conn)
		_ = dec.Decode(&req)
		body, _ := json.Marshal(resp)
		_, _ = conn.Write(body)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, func() { _ = ln.Close() }
}

func TestClientCallSuccess(t *testing.T) {
	host, port, stop := fakeBridge(t, *protocol.Success(map[string]any{"ok": true}))
	defer stop()

	c := NewClient(host, port)
	resp, err := c.Call(&protocol.Request{Type: "get_scene_info"})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusSuccess, resp.Status)
}

func TestClientCallConnectionRefused(t *testing.T) {
	c := NewClient("127.0.0.1", 1) // port 1 is reserved, connection should fail fast
	_, err := c.Call(&protocol.Request{Type: "get_scene_info"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

func TestProbeSurfacesBridgeStatus(t *testing.T) {
	host, port, stop := fakeBridge(t, *protocol.Failure("scene not accessible"))
	defer stop()

	c := NewClient(host, port)
	err := c.Probe()
	require.Error(t, err)
}

func TestShouldSendAsBase64Heuristic(t *testing.T) {
	assert.False(t, shouldSendAsBase64("print('hi')"))
	assert.True(t, shouldSendAsBase64(`print("quoted")`))
	assert.True(t, shouldSendAsBase64(string(make([]byte, 5000))))
}
