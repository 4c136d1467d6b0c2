package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/discovery/domain"
	"github.com/scopehound/scopehound/internal/discovery/source"
)

var domainsCmd = &cobra.Command{
	Use:   "domains <organization>",
	Short: "Discover domains and subdomains only",
	Long: `Run a single domain discovery session without the full scan loop.

Examples:
  scopehound domains "Example Corp" --domain example.com
  scopehound domains "Example Corp" --domain example.com --no-resolve`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		seeds, _ := cmd.Flags().GetStringSlice("domain")
		noResolve, _ := cmd.Flags().GetBool("no-resolve")

		config := loadConfig()

		dctx := discovery.NewContext(args[0])
		dctx.AddSearchTerm(args[0])
		for _, seed := range seeds {
			dctx.AddBaseDomain(seed)
			dctx.AddSearchTerm(seed)
		}

		resolver := systemResolver(noResolve)
		d := domain.New(config, nil, resolver)
		result, err := d.Discover(context.Background(), dctx, discovery.NewScanState(), nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s (%d found, %d candidates, %d API calls)\n",
			cyan("Domains"), len(result.Assets),
			result.Metrics.CandidatesFound, result.Metrics.APICalls)
		for i := range result.Assets {
			d := &result.Assets[i]
			fmt.Printf("  %s (%d subdomains)\n", d.Name, d.SubdomainCount())
			for _, sub := range d.Subdomains() {
				fmt.Printf("    %s\n", sub)
			}
		}
		for _, warning := range dedupe(result.Warnings) {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("  %s %s\n", yellow("warning:"), warning)
		}
	},
}

func init() {
	domainsCmd.Flags().StringSlice("domain", nil, "Seed base domain (repeatable)")
	domainsCmd.Flags().Bool("no-resolve", false, "Skip DNS resolution of findings")
	rootCmd.AddCommand(domainsCmd)
}

func systemResolver(disabled bool) source.Resolver {
	if disabled {
		return nil
	}
	return net.DefaultResolver
}
