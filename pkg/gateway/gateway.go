package gateway

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/igamenovoer/blender-remote/pkg/logger"
)

// Name and Version identify this gateway during the MCP initialization
// handshake's capabilities advertisement.
const (
	Name    = "blender-remote-mcp"
	Version = "0.1.0"
)

// Gateway bundles the MCP server and the bridge client it proxies tool
// calls through.
type Gateway struct {
	MCPServer *server.MCPServer
	Client    *Client
}

// New builds a Gateway targeting the bridge at host:port, with the full
// tool surface registered.
func New(host string, port int) *Gateway {
	client := NewClient(host, port)
	mcpServer := server.NewMCPServer(Name, Version,
		server.WithToolCapabilities(true),
	)
	RegisterTools(mcpServer, client)
	return &Gateway{MCPServer: mcpServer, Client: client}
}

// Serve runs the gateway over stdio until the IDE closes the connection or
// an unrecoverable transport error occurs. stdout is reserved exclusively
// for JSON-RPC frames; the startup banner and all logs go to stderr.
func (g *Gateway) Serve() error {
	logger.Infof("blender-remote-mcp: proxying to %s", g.Client.Addr())
	fmt.Fprintf(os.Stderr, "blender-remote-mcp: effective bridge target %s\n", g.Client.Addr())
	return server.ServeStdio(g.MCPServer)
}
