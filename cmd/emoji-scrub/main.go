package main

import (
	"github.com/haytac/emoji-scrub/internal/cli"
	"github.com/haytac/emoji-scrub/internal/logging"
)

func main() {
	// Basic logger until PersistentPreRunE applies the configured one.
	logging.Setup(logging.Config{Level: "info", Console: true, TimeFormat: "15:04:05"})

	cli.Execute()
}
