// Package stages runs the check catalog in order, streaming progress to a
// sink and assembling the report.
package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/go-errors/errors"
	"go.uber.org/zap"

	"monori/internal/checks"
	"monori/internal/core"
	"monori/internal/metrics"
)

// DefaultSettleDelay separates consecutive checks so an observer can render
// each update.
const DefaultSettleDelay = 500 * time.Millisecond

// Orchestrator runs a validated list of catalog entries.
type Orchestrator struct {
	entries   []checks.Entry
	env       *checks.Env
	settle    time.Duration
	synthetic bool
	logger    *zap.SugaredLogger
	recorder  metrics.Recorder
	now       func() time.Time
}

type Option func(*Orchestrator)

// WithSettleDelay sets the pause between checks; zero disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.settle = d }
}

// WithSyntheticFailures controls what a failing evaluator leaves behind.
// When on, it gets a CheckFailed row and a completion event; when off, it
// is left out of the report and no completion event is emitted.
func WithSyntheticFailures(on bool) Option {
	return func(o *Orchestrator) { o.synthetic = on }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// New validates entries. A malformed catalog is the only fatal error.
func New(entries []checks.Entry, env *checks.Env, opts ...Option) (*Orchestrator, error) {
	if err := checks.Validate(entries); err != nil {
		return nil, fmt.Errorf("invalid check catalog: %w", err)
	}
	o := &Orchestrator{
		entries:   append([]checks.Entry(nil), entries...),
		env:       env,
		settle:    DefaultSettleDelay,
		synthetic: true,
		logger:    zap.NewNop().Sugar(),
		recorder:  metrics.NoOp{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Total is the number of checks a full run executes.
func (o *Orchestrator) Total() int {
	return len(o.entries)
}

// RunAll runs every entry in order. Two events are emitted per check: one
// before it runs and one carrying its result. Cancelling ctx stops the run
// at the next check boundary and returns the partial report; a check that
// has started is allowed to finish.
func (o *Orchestrator) RunAll(ctx context.Context, sink core.ProgressSink) core.SecurityReport {
	if sink == nil {
		sink = core.NopSink{}
	}
	total := len(o.entries)
	results := make([]core.CheckResult, 0, total)

	for i, entry := range o.entries {
		if i > 0 && !o.pause(ctx) {
			o.logger.Warnw("audit cancelled", "completed", i, "total", total)
			break
		}
		if ctx.Err() != nil {
			o.logger.Warnw("audit cancelled", "completed", i, "total", total)
			break
		}

		sink.Emit(core.ProgressEvent{Current: i + 1, Total: total, Message: entry.Intent})

		verdict, err := o.runStage(context.WithoutCancel(ctx), entry)
		if err != nil {
			o.logger.Errorw("check did not complete", "code", entry.Code, "error", err)
			if !o.synthetic {
				continue
			}
			verdict = core.FailedVerdictf(err, "점검을 완료하지 못했습니다.")
		}

		result := entry.Result(verdict)
		results = append(results, result)
		o.recorder.RecordVerdict(entry.Code, result.Status)
		o.logger.Debugw("check completed", "code", entry.Code, "status", result.Status.Name())

		sink.Emit(core.ProgressEvent{
			Current:      i + 1,
			Total:        total,
			Message:      entry.Intent + " 완료",
			CurrentCheck: &result,
		})
	}

	report := core.NewSecurityReport(results)
	o.recorder.RecordRun(report.Summary(), o.now())
	return report
}

// pause waits out the settle delay. It reports false if ctx was cancelled
// first.
func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.settle <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(o.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// runStage evaluates one entry, turning a panic into an error.
func (o *Orchestrator) runStage(ctx context.Context, entry checks.Entry) (v core.Verdict, err error) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorw("check panicked", "code", entry.Code, "panic", r)
			o.logger.Debug(errors.Wrap(r, 2).ErrorStack())
			v, err = core.Verdict{}, core.NewFailure(core.Internal, entry.Code, fmt.Errorf("panic: %v", r))
		}
		o.recorder.RecordDuration(entry.Code, o.now().Sub(start))
	}()

	v, err = entry.Evaluate(ctx, o.env)
	if err == nil && !v.Status.Valid() {
		err = core.NewFailure(core.Internal, entry.Code, fmt.Errorf("evaluator returned no verdict"))
	}
	return v, err
}
