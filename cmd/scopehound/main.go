// scopehound discovers an organization's external digital assets: autonomous
// systems, domains and subdomains, with confidence scoring and per-service
// rate limiting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/storage"
	"github.com/scopehound/scopehound/internal/storage/sqlite"
)

var (
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "scopehound",
	Short: "Organization asset discovery",
	Long: `scopehound maps an organization's external footprint.

It queries certificate transparency logs, passive DNS, BGP data and
IP-to-ASN mappings, scores every finding for confidence, and stores the
results per scan. All external services are rate limited.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", storage.DefaultPath(), "Path to the scan database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the config file")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scopehound/config.yaml"
	}
	return home + "/.scopehound/config.yaml"
}

// loadConfig reads the config file; a missing file yields defaults.
func loadConfig() *discovery.Config {
	config, err := discovery.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return config
}

// openStore opens the scan database, exiting on failure.
func openStore() storage.Storage {
	store, err := sqlite.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	return store
}
