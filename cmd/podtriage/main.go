package main

import (
	"errors"

	"github.com/ppiankov/podtriage/internal/cli"
	"github.com/ppiankov/podtriage/internal/util"
)

// Version is set at build time via -ldflags
var Version = "0.1.0"

func main() {
	cli.SetVersion(Version)
	if err := cli.Execute(); err != nil {
		code := util.ExitRuntimeError
		if errors.Is(err, cli.ErrInvalidInput) {
			code = util.ExitInvalidInput
		}
		util.ExitWithError(code, "Error: %v", err)
	}
}
