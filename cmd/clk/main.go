// clk - CareLink EMR terminal client
//
// Talks to the CareLink EMR API: patients, appointments, staff,
// departments, radiology and IR worklists, finance accounts, and the
// staff chat (including a live WebSocket watch view).
package main

import (
	"fmt"
	"os"

	"github.com/carelink/clk/internal/commands"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
