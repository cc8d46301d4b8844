package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/rebalance/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show or validate household configuration",
	Long: `Manage the household configuration directory.

Subcommands:
  init     - Write a sample household into the config directory
  show     - Print the effective policy and resolved targets
  validate - Load every file and check the policy

Examples:
  rebalance config init -c ./household
  rebalance config show -o json`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample household",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration files",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)

	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite existing files")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	ps := paths()
	if !configInitForce {
		for _, p := range []string{ps.Policy, ps.Accounts, ps.Universe} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s exists (use --force to overwrite)", p)
			}
		}
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	if err := config.WriteSample(ps); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created sample household in %s\n", configDir)
	fmt.Fprintln(out, "\nEdit the files and run:")
	_, err := fmt.Fprintf(out, "  rebalance plan -c %s\n", configDir)
	return err
}

type effectiveConfig struct {
	Policy  config.Policy      `json:"policy" yaml:"policy"`
	Targets map[string]float64 `json:"targets" yaml:"targets"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	b, err := loadBundle()
	if err != nil {
		return err
	}
	v := effectiveConfig{Policy: b.Policy, Targets: b.Targets()}
	return render(cmd.OutOrStdout(), v, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	})
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	b, err := loadBundle()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := b.Targets().Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if _, err := b.Portfolio(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configDir)
	fmt.Fprintf(out, "  Accounts: %d\n", len(b.Accounts))
	fmt.Fprintf(out, "  Assets:   %d\n", b.Universe.Len())
	_, err = fmt.Fprintf(out, "  Targets:  %d (%d overridden)\n", len(b.Targets()), len(b.Overrides))
	return err
}
