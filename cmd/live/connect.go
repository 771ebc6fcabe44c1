package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/live"
	"github.com/vango-dev/live/internal/config"
	"github.com/vango-dev/live/internal/errors"
	"github.com/vango-dev/live/pkg/client"
	"github.com/vango-dev/live/pkg/dom"
	"github.com/vango-dev/live/pkg/snapshot"
)

const snapshotTimeout = 30 * time.Second

type connectOptions struct {
	document string
	path     string
	metrics  string
	snapshot string
	marker   string
}

func connectCmd() *cobra.Command {
	var opts connectOptions

	cmd := &cobra.Command{
		Use:   "connect [url]",
		Short: "Run a headless client session",
		Long: `Connect an HTML document to a live server.

The socket path is resolved against the URL and the scheme is rewritten
from http to ws and from https to wss. The session reconnects with backoff
until interrupted. On SIGINT or SIGTERM the final document is written to
the snapshot location, if one is set.

Examples:
  live connect http://localhost:8080/ --document page.html
  live connect https://example.com/app/ --path socket --metrics :9090
  live connect http://localhost:8080/ --snapshot s3://bucket/page.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Server.URL = args[0]
			}
			applyConnectFlags(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runConnect(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.document, "document", "d", "", "HTML document to connect (default: an empty page)")
	cmd.Flags().StringVarP(&opts.path, "path", "p", "", "Socket path (default from live.yaml, then \"live\")")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "Serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Write the document here on exit (file or s3://bucket/key)")
	cmd.Flags().StringVar(&opts.marker, "marker", "", "Class that marks elements for binding")

	return cmd
}

// applyConnectFlags overrides cfg with the flags that were set.
func applyConnectFlags(cmd *cobra.Command, cfg *config.Config, opts connectOptions) {
	flags := cmd.Flags()
	if flags.Changed("document") {
		cfg.Document = opts.document
	}
	if flags.Changed("path") {
		cfg.Server.Path = opts.path
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Addr = opts.metrics
	}
	if flags.Changed("snapshot") {
		cfg.Snapshot.Location = opts.snapshot
	}
	if flags.Changed("marker") {
		cfg.Session.MarkerClass = opts.marker
	}
}

func runConnect(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := cfg.Logger(os.Stderr)

	base, err := baseURL(cfg.Server.URL)
	if err != nil {
		return err
	}
	doc, err := loadDocument(cfg.Document, base)
	if err != nil {
		return err
	}

	var sink snapshot.Sink
	if cfg.Snapshot.Location != "" {
		if sink, err = openSink(cfg); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sess, err := live.Start(doc,
		live.WithPath(cfg.Server.Path),
		live.WithSessionOptions(
			client.WithConfig(cfg.ClientConfig()),
			client.WithLogger(logger),
			client.WithMetrics(client.NewMetrics(reg)),
		),
	)
	if err != nil {
		return errors.New("L140").Wrap(err)
	}
	defer sess.Close()

	success("Session started")
	info("Socket:   %s", sess.URL())
	if cfg.Metrics.Addr != "" {
		info("Metrics:  http://%s/metrics", cfg.Metrics.Addr)
	}
	if sink != nil {
		info("Snapshot: %s", sink)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-sess.Done():
			stop()
		}
		return nil
	})
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return errors.New("L123").Wrap(err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Wait()
	info("Shutting down...")

	if sink != nil {
		if err := writeSnapshot(sess, sink, logger); err != nil {
			return err
		}
		success("Snapshot written to %s", sink)
	}
	return runErr
}

// baseURL parses the server URL. An empty URL selects the document's
// default location.
func baseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("L120").
			Wrap(err).
			WithSuggestion("Pass an absolute URL such as http://localhost:8080/")
	}
	return u, nil
}

// loadDocument parses the document at path with base as its location. An
// empty path yields an empty page.
func loadDocument(path string, base *url.URL) (*dom.Document, error) {
	var opts []dom.Option
	if base != nil {
		opts = append(opts, dom.WithURL(base))
	}
	if path == "" {
		return dom.New(opts...), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("L121").Wrap(err).WithLocation(path, 0)
	}
	defer f.Close()

	doc, err := dom.Parse(f, opts...)
	if err != nil {
		return nil, errors.New("L121").Wrap(err).WithLocation(path, 0)
	}
	return doc, nil
}

// openSink returns the snapshot sink for the configured location.
func openSink(cfg *config.Config) (snapshot.Sink, error) {
	loc, err := snapshot.Parse(cfg.Snapshot.Location)
	if err != nil {
		return nil, errors.New("L160").Wrap(err)
	}
	var api snapshot.PutObjectAPI
	if loc.Scheme == "s3" {
		api = snapshot.NewS3Client(cfg.S3())
	}
	sink, err := snapshot.Open(cfg.Snapshot.Location, api)
	if err != nil {
		return nil, errors.New("L160").Wrap(err)
	}
	return sink, nil
}

// writeSnapshot renders the session document and writes it to sink.
func writeSnapshot(sess *client.Session, sink snapshot.Sink, logger *slog.Logger) error {
	var page string
	if err := sess.Do(func(d *dom.Document) {
		page = d.Render()
	}); err != nil {
		return errors.New("L161").Wrap(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if err := sink.Put(ctx, []byte(page)); err != nil {
		return errors.New("L161").Wrap(err)
	}
	logger.Info("snapshot written", "sink", sink.String(), "bytes", len(page))
	return nil
}

// metricsHandler serves /metrics and /healthz.
func metricsHandler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}
