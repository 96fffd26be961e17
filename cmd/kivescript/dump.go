package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var strict, utf8, sorted bool

	cmd := &cobra.Command{
		Use:   "dump DIR",
		Short: "Load *.rive files from DIR and print the parsed topic tree or sorted trigger tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine(args[0], strict, utf8)
			if err != nil {
				return err
			}
			if sorted {
				fmt.Print(e.DumpSorted())
			} else {
				fmt.Print(e.DumpTopics())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject malformed script lines instead of logging them")
	cmd.Flags().BoolVar(&utf8, "utf8", false, "match triggers in UTF-8 mode")
	cmd.Flags().BoolVar(&sorted, "sorted", false, "print priority-sorted trigger tables instead of the topic tree")
	return cmd
}
