package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	// Version is set during build
	Version = "dev"

	// BuildDate is set during build
	BuildDate = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deckforge",
	Short: "Render declarative deck documents into slide artifacts",
	Long: `deckforge turns a YAML or JSON deck document into a finished
slide deck. It resolves the theme from explicit colors, scraped brand
hints, templates and built-in defaults, lays each slide out on a fixed
grid, and writes a PDF or a directory of PNG pages.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// maxprocs.Set only fails on an invalid GOMAXPROCS, runtime defaults apply then
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build Date: ` + BuildDate + `
`)

	addGlobalFlags(rootCmd.PersistentFlags())
}

// addGlobalFlags registers the flags every command accepts
func addGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolP("verbose", "v", false, "Enable debug logging")
	fs.StringP("config", "c", "", "Global config file (default: ~/.config/deckforge/config.toml)")
	fs.String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	fs.Bool("json", false, "Print results as JSON")
}
