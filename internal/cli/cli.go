// Package cli implements the formflow command-line interface.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/internal/restapi"
	"github.com/goliatone/go-formflow/pkg/catalog"
)

// CLI encapsulates the formflow command-line interface.
type CLI struct {
	version string
	verbose bool
	envFile string

	apiURL  string
	token   string
	timeout time.Duration

	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:     "formflow",
		Short:   "Fill, export, and share dynamic forms from the terminal",
		Version: c.version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.loadEnv()
			c.initLogging()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	flags.StringVar(&c.envFile, "env", "", "Path to a .env file (default: ./.env when present)")
	flags.StringVar(&c.apiURL, "api", "", "Form-builder API base URL (env FORMFLOW_API_URL)")
	flags.StringVar(&c.token, "token", "", "Bearer token (env FORMFLOW_TOKEN)")
	flags.DurationVar(&c.timeout, "timeout", 0, "Per-request timeout (0 disables)")

	c.rootCmd.AddCommand(c.newFillCommand())
	c.rootCmd.AddCommand(c.newExportCommand())
	c.rootCmd.AddCommand(c.newQRCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

func (c *CLI) loadEnv() {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			slog.Warn("Cannot load env file", "path", c.envFile, "error", err)
		}
		return
	}
	// The default .env is optional.
	_ = godotenv.Load()
}

func (c *CLI) initLogging() {
	if c.verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

func (c *CLI) newClient() (*restapi.Client, error) {
	apiURL := c.apiURL
	if apiURL == "" {
		apiURL = os.Getenv("FORMFLOW_API_URL")
	}
	token := c.token
	if token == "" {
		token = os.Getenv("FORMFLOW_TOKEN")
	}

	return restapi.New(catalog.NewConfig(
		catalog.WithBaseURL(apiURL),
		catalog.WithToken(token),
		catalog.WithTimeout(c.timeout),
		catalog.WithUserAgent("formflow-cli/"+c.version),
	))
}
