package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "dashboard",
		Short:   "Axelar and Squid bridge analytics dashboard",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newSQLCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
