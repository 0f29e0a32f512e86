package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"momentum/internal/backend"
	"momentum/internal/cli"
	"momentum/internal/config"
	"momentum/internal/log"
)

// ctl carries the configuration shared by every subcommand.
type ctl struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	c := &ctl{v: viper.New()}

	root := &cobra.Command{
		Use:   "momentumctl",
		Short: "Admin tool for the momentum habit and finance tracker",
		Long: `momentumctl inspects a momentum database from the command line:
parse saved bank alert emails, compute habit streaks, summarize a month
of transactions and run a one-off mailbox ingestion.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.initConfig,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "optional config file (yaml, toml or json)")
	flags.String("db", "", "SQLite database path (default: $SQLITE_DB_PATH)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	_ = c.v.BindPFlag("config", flags.Lookup("config"))
	_ = c.v.BindPFlag("db", flags.Lookup("db"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(c.parseCmd())
	root.AddCommand(c.streakCmd())
	root.AddCommand(c.summaryCmd())
	root.AddCommand(c.ingestCmd())
	root.AddCommand(c.exportedCmd())
	return root
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig layers flags, MOMENTUM_* variables and an optional config file
// over the environment configuration shared with the services.
func (c *ctl) initConfig(cmd *cobra.Command, _ []string) error {
	if err := cli.LoadEnvFile(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	c.v.SetEnvPrefix("MOMENTUM")
	c.v.AutomaticEnv()
	if file := c.v.GetString("config"); file != "" {
		c.v.SetConfigFile(file)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg := config.Load()
	if db := c.v.GetString("db"); db != "" {
		cfg.SQLiteDBPath = db
	}
	if level := c.v.GetString("log_level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	log.SetDefault(c.logger)
	return nil
}

// open builds the backend. Read-only commands pass offline to skip the
// broker and the mailbox.
func (c *ctl) open(ctx context.Context, offline bool) (*backend.App, error) {
	cfg := *c.cfg
	if offline {
		cfg.AMQPURL = ""
		cfg.GmailOAuthClientFile = ""
		cfg.GmailOAuthClientJSON = ""
	}
	return backend.Build(ctx, &cfg, c.logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
