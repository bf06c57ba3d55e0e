package main

import (
	"fmt"

	"github.com/amp-labs/statemixin/statemachine/visualizer"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	opts := visualizer.DefaultOptions()

	var hideConditions, hideEffects bool

	cmd := &cobra.Command{
		Use:   "graph <table>",
		Short: "Render a machine table as a Mermaid state diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, desc, err := loadConfig(args[0])
			if err != nil {
				return err
			}

			diagram, err := visualizer.GenerateMermaidWithOptions(desc, opts.
				WithShowConditions(!hideConditions).
				WithShowEffects(!hideEffects))
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), diagram)

			return err
		},
	}

	cmd.Flags().StringVar(&opts.Direction, "direction", opts.Direction, "Diagram direction (TB, BT, LR, RL)")
	cmd.Flags().StringVar(&opts.Theme, "theme", opts.Theme, "Color theme (default, dark, forest)")
	cmd.Flags().StringSliceVar(&opts.HighlightPath, "highlight", nil, "States to highlight")
	cmd.Flags().BoolVar(&hideConditions, "no-conditions", false, "Omit conditions from edge labels")
	cmd.Flags().BoolVar(&hideEffects, "no-effects", false, "Omit effects from edge labels")

	return cmd
}
