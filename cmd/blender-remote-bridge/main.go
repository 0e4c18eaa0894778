// Command blender-remote-bridge runs the framed JSON TCP bridge (C1-C4):
// a simulated Host, a single host-worker goroutine, the command router,
// and the listening socket, all supervised together.
package main

import (
	"os"

	"github.com/igamenovoer/blender-remote/cmd/blender-remote-bridge/app"
	"github.com/igamenovoer/blender-remote/pkg/logger"
)

func main() {
	logger.Initialize()
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
