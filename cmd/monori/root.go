package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"monori/internal/checks"
	"monori/internal/config"
	"monori/internal/logger"
	"monori/internal/platform/windows"
	"monori/internal/readers"
	"monori/internal/utils"
)

// hostFactory connects the readers a run observes the host through. The
// returned closer releases them.
type hostFactory func(cfg *config.Config) (*checks.Env, func() error)

func windowsHost(cfg *config.Config) (*checks.Env, func() error) {
	wmi := windows.NewWMIClient()
	env := checks.NewEnv(windows.NewRegistry(), wmi, readers.ExecRunner{Timeout: cfg.ToolTimeout})
	return env, wmi.Close
}

// app is the state shared by every subcommand.
type app struct {
	fs         afero.Fs
	viper      *viper.Viper
	configPath string
	host       hostFactory
	elevated   func() bool

	cfg *config.Config
	log *zap.SugaredLogger
}

func newApp() *app {
	return &app{
		fs:       afero.NewOsFs(),
		viper:    viper.New(),
		host:     windowsHost,
		elevated: utils.IsAdmin,
		log:      zap.NewNop().Sugar(),
	}
}

// NewRootCommand creates the command tree of the audit tool.
func NewRootCommand(ctx context.Context, name string) *cobra.Command {
	return newRootCommand(ctx, name, newApp())
}

func newRootCommand(ctx context.Context, name string, a *app) *cobra.Command {
	if name == "" {
		name = "monori"
	}
	cmd := &cobra.Command{
		Use:           name,
		Short:         "Audit a Windows workstation against the PC security baseline",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			// stderr sync fails on some terminals; nothing to recover
			_ = a.log.Sync()
			return nil
		},
	}
	cmd.SetContext(ctx)

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML, TOML or JSON configuration file")
	cmd.PersistentFlags().StringP("log-level", "l", "info", "Set the logging level (debug, info, warn, error)")
	_ = a.viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		newAuditCommand(a),
		newChecksCommand(a),
		newShowCommand(a),
		newVersionCommand(),
	)
	return cmd
}

// load reads configuration, then installs the logger in the command's
// context.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.viper, a.fs, a.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg
	a.log = logger.NewStderrLogger(cfg.LogLevel)
	cmd.SetContext(logger.WithLogger(cmd.Context(), a.log))
	return nil
}

const rootLongDescription = `monori inspects local Windows configuration (registry values, the exported
security policy, management tables and the output of system tools) and scores
each item of the PC security baseline as 양호, 취약, 점검 실패 or 수동 점검.

Example usage:

$ monori audit --output report.json
$ monori audit --checks PC-01,PC-11 --progress jsonl
$ monori show report.json`
