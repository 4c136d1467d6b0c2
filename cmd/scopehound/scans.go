package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "List stored scans",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		scans, err := store.Scans(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(scans) == 0 {
			fmt.Println("No scans recorded yet.")
			return
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s\n", cyan("Stored Scans"))
		for _, scan := range scans {
			fmt.Printf("  %s  %-24s  %s  %d AS / %d domains / %d subdomains\n",
				scan.ID, scan.Target, scan.StartedAt.Format("2006-01-02 15:04"),
				scan.ASNCount, scan.DomainCount, scan.SubdomainCount)
		}
	},
}

func init() {
	rootCmd.AddCommand(scansCmd)
}
