package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scopehound/scopehound/internal/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive console",
	Long: `Start the interactive console to build scans incrementally and
inspect results without leaving the process.`,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		c := console.New(&console.Config{
			Discovery: loadConfig(),
			Store:     store,
		})
		if err := c.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
