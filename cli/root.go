// Package cli wires the console's commands together.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-lawfirm-console/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every command needs once the root pre-run has executed.
type app struct {
	cfgFile string
	verbose bool
	noColor bool
	version string

	v   *viper.Viper
	cfg config.Config
	out *Printer
}

// NewRootCmd builds the command tree. version is reported by the version command.
func NewRootCmd(version string) *cobra.Command {
	a := &app{v: viper.New(), version: version}

	rootCmd := &cobra.Command{
		Use:   "lawfirm-console",
		Short: "Law firm dashboard console",
		Long: `lawfirm-console serves the law firm dashboard and manages the signed-in session.

Example usage:
  lawfirm-console serve                          # Start the dashboard on the configured port
  lawfirm-console login --email me@firm.example  # Sign in and store the session tokens
  lawfirm-console status                         # Show who is signed in
  lawfirm-console routes --role LAWYER           # Show which views a role may open`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .lawfirm-console.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().String("backend-url", "", "backend API base URL")
	rootCmd.PersistentFlags().String("token-file", "", "where the session tokens are kept")

	_ = a.v.BindPFlag("backend.base_url", rootCmd.PersistentFlags().Lookup("backend-url"))
	_ = a.v.BindPFlag("session.token_file", rootCmd.PersistentFlags().Lookup("token-file"))

	rootCmd.AddCommand(
		a.newServeCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newRegisterCmd(),
		a.newStatusCmd(),
		a.newRoutesCmd(),
		a.newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree against the process arguments.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.out = NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), !a.noColor)

	setupLogging(cmd.ErrOrStderr(), cfg.GetEnv(), cfg.GetLogLevel(), a.verbose)
	log.Debug().
		Str("env", cfg.GetEnv()).
		Str("backend", cfg.GetBackendBaseURL()).
		Str("token_file", cfg.GetTokenFile()).
		Msg("Configuration loaded")
	return nil
}

// setupLogging configures the global zerolog logger: human readable in DEV,
// JSON everywhere else.
func setupLogging(w io.Writer, env, level string, verbose bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if w == nil {
		w = os.Stderr
	}
	if env == "DEV" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
