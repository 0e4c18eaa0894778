// Command blender-remote-mcp runs the MCP Gateway (C5): a JSON-RPC/stdio
// process that translates MCP tool calls into one-shot TCP requests
// against a running blender-remote-bridge.
package main

import (
	"os"

	"github.com/igamenovoer/blender-remote/cmd/blender-remote-mcp/app"
	"github.com/igamenovoer/blender-remote/pkg/logger"
)

func main() {
	logger.Initialize()
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
