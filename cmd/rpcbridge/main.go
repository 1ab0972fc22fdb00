// Command rpcbridge converts JSON-RPC records between the node's own shapes
// and the shapes go-ethereum clients decode.
//
// Usage:
//
//	rpcbridge convert <entity> --direction to-geth|from-geth [file]
//	rpcbridge match <filter-file> [logs-file]
//	rpcbridge fields [entity]
//	rpcbridge version
//
// Global flags:
//
//	--config      YAML config file
//	--log.level   debug, info, warn or error (default: info)
//	--log.format  json or text (default: json)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eth2030/rpcbridge/log"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// globalFlags are the persistent flags shared by every subcommand. Flags
// left empty fall back to the config file.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// app is the state subcommands share once the root command has loaded the
// config.
type app struct {
	cfg    *Config
	logger *log.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "rpcbridge",
		Short: "Convert JSON-RPC records between node and go-ethereum shapes",
		Long: `rpcbridge translates transactions, receipts, logs, filters, call requests,
proofs and fee histories between the node's JSON-RPC shapes and the shapes
go-ethereum's ethclient decodes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(flags)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log.level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log.format", "", "log format: json, text")

	cmd.AddCommand(convertCmd(a), matchCmd(a), fieldsCmd(a), versionCmd(a))
	return cmd
}

// setup loads the config, applies flag overrides and installs the logger.
func (a *app) setup(flags globalFlags) error {
	cfg, err := LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	format, _ := log.ParseFormat(cfg.Log.Format)
	a.logger = log.NewWithFormat(a.stderr, level, format)
	log.SetDefault(a.logger)
	a.cfg = cfg
	a.logger.Debug("config loaded", "path", flags.configPath, "workers", cfg.Batch.Workers)
	return nil
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "rpcbridge %s (commit %s)\n", version, commit)
			return err
		},
	}
}
