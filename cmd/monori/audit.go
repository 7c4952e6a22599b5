package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"monori/internal/checks"
	"monori/internal/config"
	"monori/internal/core"
	"monori/internal/logger"
	"monori/internal/metrics"
	"monori/internal/stages"
)

// StdoutOutput writes the report to standard output instead of a file.
const StdoutOutput = "-"

var ErrStdoutConflict = errors.New("jsonl progress and a report on stdout cannot share standard output")

func newAuditCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the security checks and write a JSON report",
		Long:  auditLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAudit(cmd)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringP("output", "o", defaults.Output, `Report path, or "-" for standard output`)
	flags.String("progress", defaults.Progress, "Progress reporting: none, log or jsonl (one event per line on stdout)")
	flags.StringSlice("checks", nil, "Run only these check codes, e.g. PC-01,PC-11")
	flags.Duration("settle-delay", defaults.SettleDelay, "Pause between checks")
	flags.Duration("tool-timeout", defaults.ToolTimeout, "Time limit for each external tool invocation")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile-collector path")
	flags.Bool("synthetic-failures", defaults.SyntheticFailures, "Report a check that errors out as 점검 실패 instead of omitting it")
	for _, key := range []string{"output", "progress", "checks", "settle-delay", "tool-timeout", "metrics-file", "synthetic-failures"} {
		_ = a.viper.BindPFlag(key, flags.Lookup(key))
	}
	return cmd
}

func (a *app) runAudit(cmd *cobra.Command) error {
	ctx := cmd.Context()
	log := logger.GetLogger(ctx)
	cfg := a.cfg

	if cfg.Output == StdoutOutput && cfg.Progress == config.ProgressJSONL {
		return ErrStdoutConflict
	}
	entries, err := checks.Select(cfg.Checks)
	if err != nil {
		return err
	}
	if !a.elevated() {
		log.Warn("not running as administrator; security policy checks will report 점검 실패")
	}

	env, closeHost := a.host(cfg)
	defer func() {
		if err := closeHost(); err != nil {
			log.Warnw("closing host readers", "error", err)
		}
	}()
	env.Policy = cfg.Policy

	var recorder metrics.Recorder = metrics.NoOp{}
	var prom *metrics.Prometheus
	if cfg.MetricsFile != "" {
		prom = metrics.NewPrometheus()
		recorder = prom
	}

	orchestrator, err := stages.New(entries, env,
		stages.WithSettleDelay(cfg.SettleDelay),
		stages.WithSyntheticFailures(cfg.SyntheticFailures),
		stages.WithLogger(log),
		stages.WithRecorder(recorder),
	)
	if err != nil {
		return err
	}

	log.Infow("audit started", "checks", len(entries))
	start := time.Now()
	report := orchestrator.RunAll(ctx, progressSink(cfg.Progress, cmd.OutOrStdout(), log))
	log.Infow("audit finished", "results", len(report.Results), "elapsed", time.Since(start))

	summaryOut := cmd.OutOrStdout()
	if cfg.Output == StdoutOutput {
		if err := core.EncodeReport(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		summaryOut = cmd.ErrOrStderr()
	} else {
		if err := core.WriteReport(a.fs, cfg.Output, report); err != nil {
			return err
		}
		log.Infow("report written", "path", cfg.Output)
	}

	if prom != nil {
		if err := prom.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Errorw("writing metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}

	if cfg.Progress != config.ProgressJSONL {
		printSummary(summaryOut, report)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("audit interrupted after %d of %d checks: %w", len(report.Results), orchestrator.Total(), ctx.Err())
	}
	return nil
}

func progressSink(mode string, stdout io.Writer, log *zap.SugaredLogger) core.ProgressSink {
	switch mode {
	case config.ProgressLog:
		return logger.LogSink{Logger: log}
	case config.ProgressJSONL:
		return core.NewJSONLinesSink(stdout)
	}
	return core.NopSink{}
}

const auditLongDescription = `Run the PC security baseline checks in catalog order and write the results
as a JSON report. Reading the local security policy requires an elevated
prompt; without it the affected checks are reported as 점검 실패.

Every setting can also come from the configuration file or from a MONORI_
environment variable, e.g. MONORI_POLICY_PATCH_WINDOW_DAYS=60.

Example usage:

$ monori audit
$ monori audit --checks PC-11,PC-13 --output - --progress log
$ monori audit --progress jsonl --output C:\audit\report.json`
