// cmd/ratdriver/main.go
package main

import (
	"os"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(newApp().execute(os.Args[1:]))
}
