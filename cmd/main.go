// main exec file for topo
package main

import (
	stdlog "log"
	"os"

	"github.com/spf13/cobra"
)

var (
	log = stdlog.New(os.Stdout, "\033[38;5;239m[ \033[38;5;2mt\033[38;5;214mop\033[38;5;200mo   \033[38;5;239m] \033[0m", stdlog.LstdFlags|stdlog.Lmsgprefix|stdlog.Lmicroseconds)

	rootCmd = &cobra.Command{
		Use:          "topo",
		Short:        "Parse, validate, render, and serve service topology documents",
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
