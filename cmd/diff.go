package main

import (
	"fmt"

	"github.com/dangerclosesec/topo"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Show a unified diff of two documents in canonical form",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := topo.ParseFile(args[0])
		if err != nil {
			return err
		}

		b, err := topo.ParseFile(args[1])
		if err != nil {
			return err
		}

		text, err := topo.Diff(a, b, args[0], args[1])
		if err != nil {
			return err
		}

		if text == "" {
			log.Printf("No differences between %s and %s", args[0], args[1])
			return nil
		}

		fmt.Print(text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
