package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/hla-annotator/internal/domain/annotation"
)

// NewPatternsCmd creates the rule-table maintenance command group.
func NewPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect and validate the classification rule tables",
	}
	cmd.AddCommand(newPatternsValidateCmd(), newPatternsListCmd())
	return cmd
}

// newPatternsValidateCmd loads all three rule files exactly the way a run
// would, so an invalid pattern is caught before it costs a fetch pass.
func newPatternsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every rule table and fail on the first invalid pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			rules, err := loadConfiguredRules(cliCtx)
			if err != nil {
				return err
			}
			if _, err := annotation.NewClassifier(rules); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hla:      %d rule(s) OK\n", rules.HLA.Len())
			fmt.Fprintf(out, "scenario: %d rule(s) OK\n", rules.Scenario.Len())
			fmt.Fprintf(out, "disease:  %d rule(s) OK\n", rules.Disease.Len())
			return nil
		},
	}
}

func newPatternsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every rule label in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			rules, err := loadConfiguredRules(cliCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, set := range []*annotation.RuleSet{rules.HLA, rules.Scenario, rules.Disease} {
				fmt.Fprintf(out, "%s:\n", set.Name)
				for i, rule := range set.Rules {
					marker := ""
					if rule.Pattern == nil {
						marker = " (empty pattern, never matches)"
					}
					fmt.Fprintf(out, "  %2d. %s%s\n", i+1, rule.Label, marker)
				}
			}
			return nil
		},
	}
}

func loadConfiguredRules(cliCtx *CLIContext) (*annotation.RuleSets, error) {
	cfg := cliCtx.Config
	return annotation.LoadRuleSets(
		cfg.Patterns.HLAFile,
		cfg.Patterns.ScenarioFile,
		cfg.Patterns.DiseaseFile,
		cliCtx.Logger,
	)
}
