package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	ilog "github.com/korea/kivescript/internal/log"
	"github.com/korea/kivescript/transport/ws"
)

func newServeCmd() *cobra.Command {
	var strict, utf8, verbose bool
	var addr string

	cmd := &cobra.Command{
		Use:   "serve DIR",
		Short: "Load *.rive files from DIR and serve them over a WebSocket gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(args[0], strict, utf8)
			if err != nil {
				return err
			}
			ilog.Enabled = verbose

			gw := ws.NewGateway(e)
			http.Handle("/chat", gw)
			fmt.Printf("listening on %s (ws endpoint /chat)\n", addr)
			return http.ListenAndServe(addr, nil)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject malformed script lines instead of logging them")
	cmd.Flags().BoolVar(&utf8, "utf8", false, "match triggers in UTF-8 mode")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log gateway activity")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
