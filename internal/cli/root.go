package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X promptq/internal/cli.Version=...".
var Version = "dev"

// Options carries process-level settings shared by every subcommand.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogPretty  bool
	Server     string

	Stdout io.Writer
	Stderr io.Writer
}

// DefaultOptions reads defaults from the environment.
func DefaultOptions() *Options {
	return &Options{
		ConfigPath: envStr("PROMPTQ_CONFIG", ""),
		LogLevel:   envStr("PROMPTQ_LOG_LEVEL", ""),
		LogPretty:  envBool("PROMPTQ_LOG_PRETTY", false),
		Server:     envStr("PROMPTQ_SERVER", "http://127.0.0.1:8080"),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// BuildRootCmd constructs the command tree bound to opts.
func BuildRootCmd(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "promptqd",
		Short:         "Single-flight prompt queue in front of LLM backends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "Config file (.yaml, .toml or .json); defaults PROMPTQ_CONFIG or ./promptq.yaml")
	pf.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug|info|warn|error (overrides config)")
	pf.BoolVar(&opts.LogPretty, "log-pretty", opts.LogPretty, "Human readable console logs")
	pf.StringVar(&opts.Server, "server", opts.Server, "Daemon base URL for client commands (defaults PROMPTQ_SERVER)")

	root.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newProvidersCmd(opts),
		newModelsCmd(opts),
		newSettingsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cmd.Println("promptqd " + Version)
				return nil
			},
		},
	)
	return root
}

// Execute runs the CLI with process arguments and returns the exit code.
func Execute() int {
	opts := DefaultOptions()
	root := BuildRootCmd(opts)
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error: " + err.Error())
		return 1
	}
	return 0
}
