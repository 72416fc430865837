package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/production"
	"github.com/comalice/hsm/loader"
)

var graphCmd = &cobra.Command{
	Use:   "graph <model.yaml> [event...]",
	Short: "Export the model as a Graphviz graph",
	Long: `Outputs the model as Graphviz DOT (or a JSON tree with --format json).
Events given after the document are fed to a fresh instance first and the
resulting configuration is highlighted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		m, _, err := compile(args[0], zap.NewNop())
		if err != nil {
			return err
		}
		v := &production.DefaultVisualizer{}

		switch format {
		case "json":
			data, err := v.ExportJSON(m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		case "dot":
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		var in *hsm.Instance
		if len(args) > 1 {
			in, err = hsm.NewInstance("graph", m)
			if err != nil {
				return err
			}
			for _, name := range args[1:] {
				if _, err := in.Evaluate(loader.NewEvent(name, nil)); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), v.ExportDOT(m, in))
		return nil
	},
}

func init() {
	graphCmd.Flags().String("format", "dot", "Output format (dot, json)")
	rootCmd.AddCommand(graphCmd)
}
