package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var assetsCmd = &cobra.Command{
	Use:   "assets <scan-id>",
	Short: "Show the assets recorded for a scan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		ctx := context.Background()
		scanID := args[0]

		scan, err := store.Scan(ctx, scanID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if scan == nil {
			fmt.Fprintf(os.Stderr, "Error: no scan with ID %s\n", scanID)
			os.Exit(1)
		}

		asns, err := store.ASNs(ctx, scanID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		domains, err := store.Domains(ctx, scanID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("Scan %s (%s, started %s)\n", scan.ID, scan.Target,
			scan.StartedAt.Format("2006-01-02 15:04"))

		fmt.Printf("\n%s\n", cyan("Autonomous Systems"))
		if len(asns) == 0 {
			fmt.Println("  (none)")
		}
		for _, asn := range asns {
			line := asn.String()
			if asn.Country != "" {
				line += " [" + asn.Country + "]"
			}
			fmt.Printf("  %s\n", line)
		}

		fmt.Printf("\n%s\n", cyan("Domains"))
		if len(domains) == 0 {
			fmt.Println("  (none)")
		}
		for i := range domains {
			d := &domains[i]
			fmt.Printf("  %s (%d subdomains)\n", d.Name, d.SubdomainCount())
			for _, sub := range d.Subdomains() {
				fmt.Printf("    %s\n", sub)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(assetsCmd)
}
