package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var strict, utf8 bool
	var user string

	cmd := &cobra.Command{
		Use:   "chat DIR",
		Short: "Load *.rive files from DIR and chat on stdin/stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(args[0], strict, utf8)
			if err != nil {
				return err
			}

			ctx := context.Background()
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprintf(os.Stdout, "> ")
			for scanner.Scan() {
				line := scanner.Text()
				reply, err := e.Reply(ctx, user, line)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				} else {
					fmt.Fprintf(os.Stdout, "%s\n", reply)
				}
				fmt.Fprintf(os.Stdout, "> ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject malformed script lines instead of logging them")
	cmd.Flags().BoolVar(&utf8, "utf8", false, "match triggers in UTF-8 mode")
	cmd.Flags().StringVar(&user, "user", "local", "username for this chat session")
	return cmd
}
