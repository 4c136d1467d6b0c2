package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/asn"
)

var asnCmd = &cobra.Command{
	Use:   "asn <organization>",
	Short: "Discover autonomous systems only",
	Long: `Run a single AS discovery session without the full scan loop.

Examples:
  scopehound asn "Example Corp"
  scopehound asn "Example Corp" --term examplenet --min-confidence 0.5`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		terms, _ := cmd.Flags().GetStringSlice("term")
		minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")

		config := loadConfig()
		if cmd.Flags().Changed("min-confidence") {
			config.MinConfidenceThreshold = minConfidence
		}

		dctx := discovery.NewContext(args[0])
		dctx.AddSearchTerm(args[0])
		for _, term := range terms {
			dctx.AddSearchTerm(term)
		}

		d := asn.New(config, nil)
		result, err := d.Discover(context.Background(), dctx, discovery.NewScanState(), nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s (%d found, %d candidates, %d API calls)\n",
			cyan("Autonomous Systems"), len(result.Assets),
			result.Metrics.CandidatesFound, result.Metrics.APICalls)
		for _, a := range result.Assets {
			line := a.String()
			if a.Country != "" {
				line += " [" + a.Country + "]"
			}
			fmt.Printf("  %s\n", line)
		}
		for _, warning := range dedupe(result.Warnings) {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("  %s %s\n", yellow("warning:"), warning)
		}
	},
}

func init() {
	asnCmd.Flags().StringSlice("term", nil, "Extra search term (repeatable)")
	asnCmd.Flags().Float64("min-confidence", 0.3, "Minimum confidence threshold")
	rootCmd.AddCommand(asnCmd)
}
