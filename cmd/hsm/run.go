package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/core"
	"github.com/comalice/hsm/loader"
	"github.com/comalice/hsm/observe"
)

var runCmd = &cobra.Command{
	Use:   "run <model.yaml> [event...]",
	Short: "Feed events to an instance of a model",
	Long: `Creates an instance of the model and evaluates each event in turn,
printing the active configuration after every step. Events are the names
given after the document, followed by those read from --events.

With --metrics-addr the Prometheus counters are served on /metrics until
the process is interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("events", "", "YAML list of events to feed (- for stdin)")
	runCmd.Flags().String("instance", "cli", "Instance name")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	eventsPath, _ := cmd.Flags().GetString("events")
	name, _ := cmd.Flags().GetString("instance")
	addr, _ := cmd.Flags().GetString("metrics-addr")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	events := make([]loader.Event, 0, len(args)-1)
	for _, arg := range args[1:] {
		events = append(events, loader.NewEvent(arg, nil))
	}
	if eventsPath != "" {
		more, err := readEvents(eventsPath, cmd.InOrStdin())
		if err != nil {
			return err
		}
		events = append(events, more...)
	}

	reg := prometheus.NewRegistry()
	metrics, err := observe.NewMetrics(reg)
	if err != nil {
		return err
	}
	sink := observe.Tee(observe.Zap(logger), metrics)

	m, _, err := compile(args[0], logger)
	if err != nil {
		return err
	}
	in, err := hsm.NewInstance(name, m, hsm.WithInstanceDiagnostics(sink, hsm.CategoryAll&^hsm.CategoryCreate))
	if err != nil {
		return err
	}
	machine := core.NewMachine(in, core.WithLogger(logger))
	if err := machine.Start(); err != nil {
		return err
	}
	defer machine.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s %-8s %s\n", "(start)", "", strings.Join(machine.Current(), " "))
	for _, ev := range events {
		ok, err := machine.Dispatch(ctx, ev)
		if err != nil {
			return fmt.Errorf("%s: %w", ev, err)
		}
		result := "ignored"
		if ok {
			result = "taken"
		}
		fmt.Fprintf(out, "%-16s %-8s %s\n", ev, result, strings.Join(machine.Current(), " "))
		if in.Terminated() {
			fmt.Fprintln(out, "terminated")
			break
		}
	}

	if addr == "" {
		return nil
	}
	return serveMetrics(ctx, addr, reg, logger)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("serving metrics", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// eventSpec is one entry of an events file: a bare name, or a mapping with a
// type and an optional data payload.
type eventSpec struct {
	Type string         `yaml:"type"`
	Data map[string]any `yaml:"data"`
}

func (e *eventSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		e.Type = n.Value
		return nil
	}
	type plain eventSpec
	return n.Decode((*plain)(e))
}

func readEvents(path string, stdin io.Reader) ([]loader.Event, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var specs []eventSpec
	if err := yaml.NewDecoder(r).Decode(&specs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("events %s: %w", path, err)
	}
	events := make([]loader.Event, 0, len(specs))
	for i, s := range specs {
		if s.Type == "" {
			return nil, fmt.Errorf("events %s: entry %d has no type", path, i)
		}
		var data any
		if s.Data != nil {
			data = s.Data
		}
		events = append(events, loader.NewEvent(s.Type, data))
	}
	return events, nil
}
