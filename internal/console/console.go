// Package console implements the interactive shell: build up a scan target
// incrementally, run the scan, and inspect the discovered assets without
// leaving the process.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/scopehound/scopehound/internal/discovery"
	"github.com/scopehound/scopehound/internal/scanner"
	"github.com/scopehound/scopehound/internal/storage"
)

// Console is the interactive shell.
type Console struct {
	config *discovery.Config
	store  storage.Storage
	scan   *scanner.Scanner
	rl     *readline.Instance
	ctx    context.Context

	target  string
	terms   []string
	domains []string
	last    *scanner.Summary

	commands map[string]commandHandler
}

type commandHandler func(args []string) error

// Config holds console wiring.
type Config struct {
	Discovery *discovery.Config
	Store     storage.Storage
}

// New creates a console. Storage is optional; without it scans are not
// persisted.
func New(cfg *Config) *Console {
	dcfg := cfg.Discovery
	if dcfg == nil {
		dcfg = discovery.DefaultConfig()
	}
	c := &Console{
		config:   dcfg,
		store:    cfg.Store,
		scan:     scanner.New(dcfg, cfg.Store, nil),
		commands: make(map[string]commandHandler),
	}
	c.registerCommands()
	return c
}

// Run starts the shell loop and blocks until exit or EOF.
func (c *Console) Run(ctx context.Context) error {
	c.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("scopehound> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("creating readline: %w", err)
	}
	defer rl.Close()
	c.rl = rl

	c.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := c.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

func (c *Console) processInput(line string) error {
	parts := strings.Fields(line)
	command := parts[0]
	args := parts[1:]

	if handler, ok := c.commands[command]; ok {
		return handler(args)
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("%s Unknown command %q. Type 'help' for available commands.\n", yellow("Note:"), command)
	return nil
}

func (c *Console) registerCommands() {
	c.commands["help"] = c.cmdHelp
	c.commands["?"] = c.cmdHelp
	c.commands["exit"] = c.cmdExit
	c.commands["quit"] = c.cmdExit
	c.commands["target"] = c.cmdTarget
	c.commands["term"] = c.cmdTerm
	c.commands["domain"] = c.cmdDomain
	c.commands["show"] = c.cmdShow
	c.commands["run"] = c.cmdRun
	c.commands["assets"] = c.cmdAssets
	c.commands["quota"] = c.cmdQuota
}

func (c *Console) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("scopehound interactive console"))
	fmt.Println("Discover an organization's external assets")
	fmt.Println()
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()
}

func (c *Console) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"target <organization>", "Set the target organization"},
		{"term <term...>", "Add search terms"},
		{"domain <domain...>", "Add base domains"},
		{"show", "Show the current scan setup"},
		{"run", "Run a scan against the current setup"},
		{"assets", "Show the assets from the last scan"},
		{"quota", "Show remaining rate-limit quota per service"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the console"},
	}
	for _, cmd := range commands {
		fmt.Printf("  %s  %s\n", green(fmt.Sprintf("%-24s", cmd.name)), cmd.desc)
	}
	fmt.Println()
	return nil
}

func (c *Console) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s Goodbye!\n", green("✓"))
	c.rl.Close()
	return io.EOF
}

func (c *Console) cmdTarget(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: target <organization>")
	}
	c.target = strings.Join(args, " ")
	fmt.Printf("Target set to %q\n", c.target)
	return nil
}

func (c *Console) cmdTerm(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: term <term...>")
	}
	c.terms = append(c.terms, args...)
	fmt.Printf("Search terms: %s\n", strings.Join(c.terms, ", "))
	return nil
}

func (c *Console) cmdDomain(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: domain <domain...>")
	}
	c.domains = append(c.domains, args...)
	fmt.Printf("Base domains: %s\n", strings.Join(c.domains, ", "))
	return nil
}

func (c *Console) cmdShow(args []string) error {
	fmt.Printf("Target:  %s\n", orNone(c.target))
	fmt.Printf("Terms:   %s\n", orNone(strings.Join(c.terms, ", ")))
	fmt.Printf("Domains: %s\n", orNone(strings.Join(c.domains, ", ")))
	return nil
}

func (c *Console) cmdRun(args []string) error {
	dctx := discovery.NewContext(c.target)
	for _, t := range c.terms {
		dctx.AddSearchTerm(t)
	}
	if c.target != "" {
		dctx.AddSearchTerm(c.target)
	}
	for _, d := range c.domains {
		dctx.AddBaseDomain(d)
	}
	if problems := dctx.Validate(); len(problems) > 0 {
		return &discovery.ConfigError{Problems: problems}
	}

	summary, err := c.scan.Run(c.ctx, dctx, func(percent float64, message string) {
		fmt.Printf("  [%5.1f%%] %s\n", percent, message)
	})
	if err != nil {
		return err
	}
	c.last = summary

	green := color.New(color.FgGreen).SprintFunc()
	asns, domains, subdomains, ips := summary.State.Counts()
	fmt.Printf("\n%s Scan %s finished in %s after %d iteration(s)\n",
		green("✓"), summary.ScanID, summary.CompletedAt.Sub(summary.StartedAt).Round(10*time.Millisecond), summary.Iterations)
	fmt.Printf("  %d AS, %d domains, %d subdomains, %d IPs\n", asns, domains, subdomains, ips)
	for _, warning := range summary.Warnings {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("  %s %s\n", yellow("warning:"), warning)
	}
	return nil
}

func (c *Console) cmdAssets(args []string) error {
	if c.last == nil {
		return fmt.Errorf("no scan has been run yet")
	}
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Printf("\n%s\n", cyan("Autonomous Systems"))
	if len(c.last.ASNs) == 0 {
		fmt.Println("  (none)")
	}
	for _, asn := range c.last.ASNs {
		fmt.Printf("  %s\n", asn)
	}

	fmt.Printf("\n%s\n", cyan("Domains"))
	if len(c.last.Domains) == 0 {
		fmt.Println("  (none)")
	}
	for i := range c.last.Domains {
		d := &c.last.Domains[i]
		fmt.Printf("  %s (%d subdomains)\n", d.Name, d.SubdomainCount())
		for _, sub := range d.Subdomains() {
			fmt.Printf("    %s\n", sub)
		}
	}

	if clouds := c.last.State.CloudServices(); len(clouds) > 0 {
		fmt.Printf("\n%s\n", cyan("Cloud Services"))
		for _, svc := range clouds {
			fmt.Printf("  %s\n", svc)
		}
	}
	fmt.Println()
	return nil
}

func (c *Console) cmdQuota(args []string) error {
	limiter := c.scan.Limiter()
	fmt.Println("Remaining quota (minute / hour):")
	for _, service := range []string{"bgp.he.net", "crt.sh", "hackertarget", "dns"} {
		perMinute, perHour := limiter.RemainingQuota(service)
		fmt.Printf("  %-14s %4d / %d\n", service, perMinute, perHour)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
