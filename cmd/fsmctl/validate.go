package main

import (
	"errors"
	"fmt"

	"github.com/amp-labs/statemixin/statemachine/validator"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	errValidationFailed = errors.New("validation failed")
	errInvalidFlag      = errors.New("invalid flag")
)

type validateOptions struct {
	strict bool
	fix    bool
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <table>...",
		Short: "Check machine tables for problems",
		Long: `Reports undefined triggers and capabilities, shadowed and duplicate candidates,
unreachable states and naming issues. With --fix the available fixes are applied
and the fixed table is printed as YAML.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Treat warnings as errors")
	cmd.Flags().BoolVar(&opts.fix, "fix", false, "Apply automatic fixes and print the fixed table")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts *validateOptions) error {
	out := cmd.OutOrStdout()
	failed := 0

	for _, arg := range args {
		config, desc, err := loadConfig(arg)
		if err != nil {
			return err
		}

		rules := append(validator.DefaultRules(), validator.RegisteredRules...)

		var result validator.ValidationResult
		if opts.strict {
			result = validator.ValidateWithRulesStrict(desc, rules)
		} else {
			result = validator.ValidateWithRules(desc, rules)
		}

		fmt.Fprintf(out, "%s (%s, fingerprint %s)\n", arg, desc.Name, desc.Fingerprint())
		fmt.Fprint(out, result.String())

		if opts.fix && len(result.Fixes()) > 0 {
			result, err = validator.AutoFix(config)
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}

			if opts.strict {
				result = validator.ValidateWithRulesStrict(config.Describe(), rules)
			}

			fixed, err := yaml.Marshal(config)
			if err != nil {
				return fmt.Errorf("%s: failed to encode fixed table: %w", arg, err)
			}

			fmt.Fprintf(out, "\n# fixed %s (fingerprint %s)\n%s", arg, config.Describe().Fingerprint(), fixed)
		}

		if !result.Valid {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d table(s)", errValidationFailed, failed, len(args))
	}

	return nil
}
