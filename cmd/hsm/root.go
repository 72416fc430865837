package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/primitives"
	"github.com/comalice/hsm/loader"
)

var rootCmd = &cobra.Command{
	Use:   "hsm",
	Short: "hsm runs and inspects hierarchical state machines",
	Long: `hsm loads state machine models from YAML documents, validates them,
exports them as Graphviz graphs and feeds events to running instances.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

// newLogger builds a console logger writing to stderr at the level named by
// the --log-level flag.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// compile loads the document at path. Every action it names is bound to a
// logging stub, so documents written for an embedding program still run.
func compile(path string, logger *zap.Logger, opts ...hsm.Option) (*hsm.Model, *loader.Document, error) {
	doc, err := loader.DecodeFile(path)
	if err != nil {
		return nil, nil, err
	}
	actions := loader.NewActionRegistry()
	for _, name := range actionNames(doc) {
		name := name
		actions.Register(name, func(trigger any) {
			logger.Info("action", zap.String("name", name), zap.Any("trigger", trigger))
		})
	}
	m, err := loader.Compile(doc, loader.WithActions(actions), loader.WithModelOptions(opts...))
	if err != nil {
		return nil, nil, err
	}
	return m, doc, nil
}

func actionNames(doc *loader.Document) []string {
	seen := map[string]bool{}
	var names []string
	add := func(list []string) {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	doc.Walk(func(_ string, s *primitives.StateConfig) {
		add(s.Entry)
		add(s.Exit)
		for _, t := range s.On {
			add(t.Actions)
		}
	})
	return names
}
