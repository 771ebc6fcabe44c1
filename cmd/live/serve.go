package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/live/internal/config"
	"github.com/vango-dev/live/internal/errors"
	"github.com/vango-dev/live/pkg/livetest"
	"github.com/vango-dev/live/pkg/protocol"
)

func serveCmd() *cobra.Command {
	var (
		addr   string
		script string
		path   string
		replay bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a scripted live server",
		Long: `Run a live server for client development.

Every connecting client receives the commands of the script file, one JSON
command frame per line. Messages from clients are logged. When the script
changes it is reloaded and, with --replay, sent to every connected client.

Examples:
  live serve --script commands.jsonl
  live serve --addr :9000 --path /socket --replay`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("script") {
				cfg.Serve.Script = script
			}
			if !cmd.Flags().Changed("path") {
				path = "/" + strings.TrimPrefix(cfg.Server.Path, "/")
			}
			return runServe(cmd.Context(), cfg, path, replay)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", config.DefaultServeAddr, "Listen address")
	cmd.Flags().StringVarP(&script, "script", "s", "", "Command script to replay to each client")
	cmd.Flags().StringVarP(&path, "path", "p", livetest.DefaultPath, "Socket path")
	cmd.Flags().BoolVar(&replay, "replay", false, "Send the script to connected clients when it changes")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config, path string, replay bool) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := cfg.Logger(os.Stderr)

	var script *livetest.Script
	if cfg.Serve.Script != "" {
		s, err := livetest.NewScript(cfg.Serve.Script, logger)
		if err != nil {
			return errors.New("L122").Wrap(err).WithLocation(cfg.Serve.Script, 0)
		}
		script = s
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	srv := livetest.New(
		livetest.WithPath(path),
		livetest.WithLogger(logger),
		livetest.WithGatherer(reg),
		livetest.OnConnect(func(c *livetest.Client) {
			go logMessages(ctx, c, logger)
			if script == nil {
				return
			}
			if err := script.Replay(c); err != nil {
				logger.Warn("replay failed", "error", err)
			}
		}),
	)
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	success("Serving live on %s%s", cfg.Serve.Addr, path)
	if script != nil {
		info("Script: %s (%d commands)", cfg.Serve.Script, len(script.Commands()))
	} else {
		warn("No script, clients will only be logged")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("L123").Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if script != nil {
		g.Go(func() error {
			return script.Watch(gctx, func(cmds []protocol.Command) {
				success("Script reloaded (%d commands)", len(cmds))
				if !replay {
					return
				}
				for _, cmd := range cmds {
					if err := srv.Broadcast(cmd); err != nil {
						logger.Warn("broadcast failed", "error", err)
					}
				}
			})
		})
	}

	err := g.Wait()
	info("Shut down")
	return err
}

// logMessages logs everything c sends until it disconnects.
func logMessages(ctx context.Context, c *livetest.Client, logger *slog.Logger) {
	for {
		m, err := c.Next(ctx)
		if err != nil {
			return
		}
		switch m := m.(type) {
		case *protocol.Bind:
			logger.Info("bind", "id", m.ID, "data", m.Data)
		case *protocol.Unbind:
			logger.Info("unbind", "id", m.ID)
		case *protocol.Trigger:
			logger.Info("trigger", "id", m.ID, "event", string(m.Event))
		case *protocol.ReplyMessage:
			logger.Info("reply", "token", string(m.Token), "value", string(m.Value))
		}
	}
}
