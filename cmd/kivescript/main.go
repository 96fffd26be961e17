// Command kivescript is a thin CLI over the engine package: load
// script files, sort them, and either chat interactively on stdin or
// serve a WebSocket gateway.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kivescript",
		Short: "Load and serve KiveScript chatbot scripts",
	}
	root.AddCommand(newChatCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newServeCmd())
	return root
}
