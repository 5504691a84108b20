package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kinetic-dev/kinetic/internal/config"
	"github.com/kinetic-dev/kinetic/internal/errors"
	"github.com/kinetic-dev/kinetic/pkg/inspect"
	"github.com/kinetic-dev/kinetic/pkg/kinetic"
	"github.com/kinetic-dev/kinetic/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		addr string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a runtime with the HTTP inspector",
		Long: `Run a kinetic runtime with a demo instance tree and the HTTP
inspector attached.

The inspector exposes instance state, property writes, undo/redo,
a WebSocket change stream, and Prometheus metrics.

Examples:
  kinetic serve
  kinetic serve --addr=0.0.0.0:7411`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dir, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Inspector listen address (default from kinetic.json)")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory containing kinetic.json")

	return cmd
}

func runServe(dir, addrOverride string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		var cerr *errors.CLIError
		if stderrors.As(err, &cerr) && cerr.Code == "K101" {
			cfg = config.New()
		} else {
			return err
		}
	}
	if addrOverride != "" {
		cfg.Inspector.Addr = addrOverride
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := []kinetic.Option{
		kinetic.WithLogger(logger),
		kinetic.WithHistoryCapacity(cfg.HistoryCapacity),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, kinetic.WithMetrics(
			kinetic.NewMetrics(kinetic.WithNamespace(cfg.Metrics.Namespace))))
	}
	rt := kinetic.New(opts...)

	demo, err := buildDemo(rt)
	if err != nil {
		return errors.New("K130").Wrap(err)
	}

	st, err := store.NewDiskStore(cfg.SnapshotPath())
	if err != nil {
		return errors.New("K120").Wrap(err)
	}

	srv := inspect.NewServer(rt, inspect.WithLogger(logger))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(cfg.Inspector.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		_ = rt.Close()
		return errors.New("K130").Wrap(err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.SaveSnapshot(ctx, st, "demo-last", demo); err != nil {
		logger.Warn("final snapshot failed", "error", err)
	}

	return rt.Close()
}

// buildDemo constructs a small instance tree so the inspector has something
// to show: a world with a clock child whose uptime ticks once a second.
func buildDemo(rt *kinetic.Runtime) (*kinetic.Instance, error) {
	world := kinetic.MustClass("World", nil, kinetic.ClassDef{
		Props: []kinetic.Property{
			{Name: "name", Default: "demo"},
		},
	})
	clock := kinetic.MustClass("Clock", nil, kinetic.ClassDef{
		Props: []kinetic.Property{
			{Name: "uptime", Default: 0.0},
			{Name: "running", Compute: func(in *kinetic.Instance) any {
				return !in.Destroyed()
			}},
		},
	})

	w, err := rt.NewInstance(world)
	if err != nil {
		return nil, err
	}
	c, err := rt.NewInstance(clock)
	if err != nil {
		return nil, err
	}
	if err := w.AddChild(c); err != nil {
		return nil, err
	}

	if _, err := c.Every(time.Second, func() {
		c.Set("uptime", kinetic.Num(c.MustGet("uptime"))+1)
	}); err != nil {
		return nil, err
	}

	fmt.Printf("runtime up: %s with child %s\n", w, c)
	return w, nil
}
