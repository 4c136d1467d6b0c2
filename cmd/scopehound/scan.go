package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/scanner"
	"github.com/scopehound/scopehound/internal/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan <organization>",
	Short: "Run a full discovery scan",
	Long: `Run a full discovery scan against an organization.

The scan alternates domain and AS discovery, feeding resolved IPs from one
into the other, until an iteration finds nothing new or the iteration limit
is reached.

Examples:
  # Scan with explicit seed domains
  scopehound scan "Example Corp" --domain example.com --domain example.net

  # Add extra search terms and allow more iterations
  scopehound scan "Example Corp" --domain example.com --term examplecdn --iterations 3

  # Query sources in parallel, skip persistence
  scopehound scan "Example Corp" --domain example.com --concurrent --no-save`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		domains, _ := cmd.Flags().GetStringSlice("domain")
		terms, _ := cmd.Flags().GetStringSlice("term")
		iterations, _ := cmd.Flags().GetInt("iterations")
		concurrent, _ := cmd.Flags().GetBool("concurrent")
		minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
		noSave, _ := cmd.Flags().GetBool("no-save")
		quiet, _ := cmd.Flags().GetBool("quiet")

		config := loadConfig()
		if iterations > 0 {
			config.MaxIterations = iterations
		}
		if concurrent {
			config.ConcurrentSources = true
		}
		if cmd.Flags().Changed("min-confidence") {
			config.MinConfidenceThreshold = minConfidence
		}

		dctx := discovery.NewContext(args[0])
		dctx.AddSearchTerm(args[0])
		for _, term := range terms {
			dctx.AddSearchTerm(term)
		}
		for _, domain := range domains {
			dctx.AddBaseDomain(domain)
		}
		if problems := dctx.Validate(); len(problems) > 0 {
			fmt.Fprintf(os.Stderr, "Error: %v\n", &discovery.ConfigError{Problems: problems})
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var store storage.Storage
		if !noSave {
			store = openStore()
			defer store.Close()
		}
		s := scanner.New(config, store, nil)

		var progress discovery.ProgressFunc
		if !quiet {
			progress = func(percent float64, message string) {
				fmt.Printf("[%5.1f%%] %s\n", percent, message)
			}
		}

		summary, err := s.Run(ctx, dctx, progress)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printSummary(summary)
	},
}

func init() {
	scanCmd.Flags().StringSlice("domain", nil, "Seed base domain (repeatable)")
	scanCmd.Flags().StringSlice("term", nil, "Extra search term (repeatable)")
	scanCmd.Flags().Int("iterations", 0, "Maximum discovery iterations (default from config)")
	scanCmd.Flags().Bool("concurrent", false, "Query sources in parallel")
	scanCmd.Flags().Float64("min-confidence", 0.3, "Minimum confidence threshold")
	scanCmd.Flags().Bool("no-save", false, "Do not persist the scan")
	scanCmd.Flags().Bool("quiet", false, "Suppress progress output")
	rootCmd.AddCommand(scanCmd)
}

func printSummary(summary *scanner.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	asns, domains, subdomains, ips := summary.State.Counts()
	fmt.Printf("\n%s Scan %s: %d iteration(s), %d AS, %d domains, %d subdomains, %d IPs\n",
		green("✓"), summary.ScanID, summary.Iterations, asns, domains, subdomains, ips)

	if len(summary.ASNs) > 0 {
		fmt.Printf("\n%s\n", cyan("Autonomous Systems"))
		for _, asn := range summary.ASNs {
			line := asn.String()
			if asn.Country != "" {
				line += " [" + asn.Country + "]"
			}
			fmt.Printf("  %s\n", line)
		}
	}

	if len(summary.Domains) > 0 {
		fmt.Printf("\n%s\n", cyan("Domains"))
		for i := range summary.Domains {
			d := &summary.Domains[i]
			fmt.Printf("  %s (%d subdomains)\n", d.Name, d.SubdomainCount())
			for _, sub := range d.Subdomains() {
				fmt.Printf("    %s\n", sub)
			}
		}
	}

	if clouds := summary.State.CloudServices(); len(clouds) > 0 {
		fmt.Printf("\n%s\n", cyan("Cloud Services"))
		for _, svc := range clouds {
			fmt.Printf("  %s\n", svc)
		}
	}

	if len(summary.Warnings) > 0 {
		fmt.Printf("\n%s\n", yellow("Warnings"))
		for _, warning := range dedupe(summary.Warnings) {
			fmt.Printf("  %s\n", warning)
		}
	}
	fmt.Println()
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.TrimSpace(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
