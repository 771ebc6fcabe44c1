package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vango-dev/live/internal/config"
	"github.com/vango-dev/live/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errorFormat is the log format of the loaded config, or of the
// environment until a command loads one.
var errorFormat = os.Getenv(config.EnvPrefix + "_LOG_FORMAT")

func main() {
	rootCmd := &cobra.Command{
		Use:   "live",
		Short: "Headless live document client and test server",
		Long: `live connects an HTML document to a live server over a WebSocket.

The server pushes commands that update the document. The client binds
marked elements, forwards their events and replies to requests.

  • live connect   run a headless client session
  • live serve     run a scripted server for client development
  • live errors    list error codes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to live.yaml")

	rootCmd.AddCommand(
		connectCmd(),
		serveCmd(),
		errorsCmd(),
		versionCmd(),
	)

	tty := term.IsTerminal(int(os.Stderr.Fd()))
	if _, ok := os.LookupEnv("NO_COLOR"); ok || !tty {
		errors.DisableColors()
	}

	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err, errorFormat, tty)
		os.Exit(1)
	}
}

// loadConfig loads the file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	errorFormat = cfg.Log.Format
	return cfg, nil
}

// reportError writes err as JSON for the json log format, in full on a
// terminal and as one line otherwise.
func reportError(w io.Writer, err error, format string, tty bool) {
	e := errors.FromError(err, "L124")
	switch {
	case format == "json":
		fmt.Fprintln(w, e.FormatJSON())
	case tty:
		errors.Print(w, e)
	default:
		fmt.Fprintln(w, e.FormatCompact())
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
