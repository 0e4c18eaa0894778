// Package gateway implements a separate process speaking the Model Context
// Protocol over stdio, opening one short-lived TCP connection to the bridge
// per tool call.
package gateway

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/igamenovoer/blender-remote/pkg/protocol"
)

// Timeouts and buffer sizing for calls to the bridge.
const (
	ConnectTimeout = 10 * time.Second
	ReadTimeout    = 30 * time.Second
	WriteTimeout   = 10 * time.Second
	// ReadBufferSize is sized to accommodate large screenshots and vertex dumps.
	ReadBufferSize = 128 * 1024
)

// Client is a one-shot TCP client against the bridge's framed JSON wire
// protocol: one connection per tool call, no connection pooling.
type Client struct {
	Host string
	Port int
}

// NewClient returns a Client targeting host:port.
func NewClient(host string, port int) *Client {
	return &Client{Host: host, Port: port}
}

// Addr returns the "host:port" string this client dials.
func (c *Client) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Call sends req over a fresh TCP connection and returns the decoded
// response, translating connection failures into descriptive tool errors.
func (c *Client) Call(req *protocol.Request) (*protocol.Response, error) {
	conn, err := net.DialTimeout("tcp", c.Addr(), ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("Blender bridge not reachable at %s", c.Addr())
	}
	defer conn.Close()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if _, err := conn.Write(body); err != nil {
		return nil, fmt.Errorf("Blender bridge not reachable at %s", c.Addr())
	}
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}

	_ = conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	reader := bufio.NewReaderSize(conn, ReadBufferSize)

	var resp protocol.Response
	dec := json.NewDecoder(reader)
	if err := dec.Decode(&resp); err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, fmt.Errorf("Blender bridge timed out after %ds", int(ReadTimeout.Seconds()))
		}
		return nil, fmt.Errorf("decoding bridge response: %w", err)
	}
	return &resp, nil
}

// Probe performs the trivial connectivity check backing
// check_connection_status: a get_scene_info call whose result is discarded.
// A transport failure, or a bridge reply whose status is not "success", is
// returned as an error.
func (c *Client) Probe() error {
	resp, err := c.Call(&protocol.Request{Type: "get_scene_info"})
	if err != nil {
		return err
	}
	if resp.Status != protocol.StatusSuccess {
		return errors.New(resp.Message)
	}
	return nil
}
