package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comalice/hsm/internal/primitives"
	"github.com/comalice/hsm/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate <model.yaml>...",
	Short: "Check model documents for consistency",
	Long: `Decodes each document, checks its structure and transition targets,
and compiles it into a model. Every problem found is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			_, doc, err := compile(path, zap.NewNop())
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
				continue
			}
			states := 0
			doc.Walk(func(_ string, s *primitives.StateConfig) {
				if !s.IsPseudo() {
					states++
				}
			})
			fmt.Fprintf(cmd.OutOrStdout(), "%s: model %s (version %s) is valid, %d states\n",
				path, doc.ID, loader.Version(doc), states)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
