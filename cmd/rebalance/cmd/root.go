package cmd

import (
	"github.com/rs/zerolog"
	"github.com/rustyeddy/rebalance/config"
	"github.com/rustyeddy/rebalance/engine"
	"github.com/rustyeddy/rebalance/journal"
	"github.com/rustyeddy/rebalance/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Tax-aware rebalancing for a multi-account household portfolio",
	Long: `Rebalance checks a household portfolio against its investment policy,
measures drift from target weights and recommends the trades that fix both,
placing buys by asset location and selling in taxable accounts last.

Household files are read from the config directory:
  global_policy.yaml      policy bounds, drift bands, tax rules
  accounts.yaml           accounts, cash and holdings
  asset_universe.yaml     asset metadata and base targets
  targets.generated.yaml  strategy overrides (written by 'rebalance strategy')

Defaults come from the environment (or a .env file):
  REBALANCE_CONFIG_DIR, REBALANCE_JOURNAL, REBALANCE_LOG_LEVEL, REBALANCE_LOG_PRETTY`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	configDir    string
	journalPath  string
	logLevel     string
	logPretty    bool
	outputFormat string

	log zerolog.Logger
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	env := config.LoadEnv()

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configDir, "config-dir", "c", env.ConfigDir, "household configuration directory")
	pf.StringVar(&journalPath, "journal", env.Journal, "SQLite journal of planning runs (empty disables)")
	pf.StringVar(&logLevel, "log-level", env.LogLevel, "log level: debug|info|warn|error|disabled")
	pf.BoolVar(&logPretty, "log-pretty", env.LogPretty, "human-readable log output")
	pf.StringVarP(&outputFormat, "output", "o", "text", "output format: text|json|yaml")
}

func setup(cmd *cobra.Command, _ []string) error {
	log = logger.New(logger.Config{
		Level:  logLevel,
		Pretty: logPretty,
		Out:    cmd.ErrOrStderr(),
	})
	logger.SetGlobalLogger(log)
	return checkFormat()
}

func paths() config.Paths {
	return config.DefaultPaths(configDir)
}

func loadBundle() (*config.Bundle, error) {
	b, err := config.Load(paths())
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("dir", configDir).
		Int("accounts", len(b.Accounts)).
		Int("assets", b.Universe.Len()).
		Int("overrides", len(b.Overrides)).
		Msg("household loaded")
	return b, nil
}

// newEngine builds the engine for b. When journaled is set and a journal path
// is configured the returned closer must be called.
func newEngine(b *config.Bundle, journaled bool) (*engine.Engine, func(), error) {
	opts := []engine.Option{engine.WithLogger(log)}
	closer := func() {}
	if journaled && journalPath != "" {
		j, err := journal.NewSQLite(journalPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, engine.WithJournal(j))
		closer = func() {
			if err := j.Close(); err != nil {
				log.Warn().Err(err).Msg("closing journal")
			}
		}
	}
	e, err := engine.New(b.Policy, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return e, closer, nil
}
