package cmd

import (
	"fmt"
	"io"

	"github.com/rustyeddy/rebalance/policy"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the portfolio and targets against policy",
	Long: `Run the allocation, risk and growth checks on the current portfolio and
the advisory checks on the resolved targets. Violations are reported, not
fixed; use 'rebalance plan' for trades.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var validateFail bool

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateFail, "fail", false, "exit non-zero when a violation is found")
}

type validation struct {
	Violations     []policy.Violation `json:"violations" yaml:"violations"`
	TargetWarnings []policy.Violation `json:"target_warnings" yaml:"target_warnings"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	b, err := loadBundle()
	if err != nil {
		return err
	}
	p, err := b.Portfolio()
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}
	e, _, err := newEngine(b, false)
	if err != nil {
		return err
	}

	res := validation{Violations: []policy.Violation{}, TargetWarnings: []policy.Violation{}}
	tw, err := policy.ValidateTargets(b.Targets(), b.Universe, b.Policy)
	if err != nil {
		return fmt.Errorf("targets: %w", err)
	}
	res.TargetWarnings = append(res.TargetWarnings, tw...)
	vs, err := e.ValidatePolicies(p)
	if err != nil {
		return err
	}
	res.Violations = append(res.Violations, vs...)

	err = render(cmd.OutOrStdout(), res, func(w io.Writer) error {
		if len(vs) == 0 && len(tw) == 0 {
			_, err := fmt.Fprintln(w, "✓ Portfolio and targets satisfy policy")
			return err
		}
		for _, v := range vs {
			fmt.Fprintf(w, "  - %s\n", v)
		}
		for _, v := range tw {
			fmt.Fprintf(w, "  - Target: %s\n", v)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if validateFail && len(vs) > 0 {
		return fmt.Errorf("%d policy violation(s)", len(vs))
	}
	return nil
}
