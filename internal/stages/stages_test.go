package stages

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"monori/internal/checks"
	"monori/internal/core"
)

type recorded struct {
	mu        sync.Mutex
	verdicts  map[string]core.CheckStatus
	durations []string
	runs      []core.Summary
}

func newRecorded() *recorded {
	return &recorded{verdicts: map[string]core.CheckStatus{}}
}

func (r *recorded) RecordVerdict(code string, status core.CheckStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts[code] = status
}

func (r *recorded) RecordDuration(code string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations = append(r.durations, code)
}

func (r *recorded) RecordRun(s core.Summary, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, s)
}

func stub(code string, eval checks.Evaluator) checks.Entry {
	return checks.Entry{
		Code:       code,
		Category:   core.CategorySecurity,
		Item:       "item " + code,
		Importance: core.ImportanceMedium,
		Intent:     "checking " + code,
		Evaluate:   eval,
	}
}

func good(context.Context, *checks.Env) (core.Verdict, error) {
	return core.Goodf("fine"), nil
}

func broken(context.Context, *checks.Env) (core.Verdict, error) {
	return core.Verdict{}, errors.New("evaluator exploded")
}

func collect() (*[]core.ProgressEvent, core.ProgressSink) {
	var events []core.ProgressEvent
	return &events, core.FuncSink(func(ev core.ProgressEvent) { events = append(events, ev) })
}

func threeStubs() []checks.Entry {
	return []checks.Entry{stub("T-01", good), stub("T-02", broken), stub("T-03", good)}
}

func TestRunAllSkipsFailedCheckWithoutSynthetic(t *testing.T) {
	o, err := New(threeStubs(), nil, WithSettleDelay(0), WithSyntheticFailures(false))
	require.NoError(t, err)

	events, sink := collect()
	report := o.RunAll(context.Background(), sink)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "T-01", report.Results[0].Code)
	assert.Equal(t, "T-03", report.Results[1].Code)

	require.Len(t, *events, 5)
	wantCurrent := []int{1, 1, 2, 3, 3}
	wantHasResult := []bool{false, true, false, false, true}
	for i, ev := range *events {
		assert.Equal(t, 3, ev.Total, "event %d", i)
		assert.Equal(t, wantCurrent[i], ev.Current, "event %d", i)
		assert.Equal(t, wantHasResult[i], ev.CurrentCheck != nil, "event %d", i)
	}
	assert.Equal(t, "checking T-01", (*events)[0].Message)
	assert.Equal(t, "checking T-01 완료", (*events)[1].Message)
	assert.Equal(t, "T-03", (*events)[4].CurrentCheck.Code)
}

func TestRunAllRecordsSyntheticFailure(t *testing.T) {
	o, err := New(threeStubs(), nil, WithSettleDelay(0))
	require.NoError(t, err)

	events, sink := collect()
	report := o.RunAll(context.Background(), sink)

	require.Len(t, report.Results, 3)
	assert.Equal(t, []string{"T-01", "T-02", "T-03"}, []string{
		report.Results[0].Code, report.Results[1].Code, report.Results[2].Code,
	})
	failed := report.Results[1]
	assert.Equal(t, core.StatusCheckFailed, failed.Status)
	assert.Regexp(t, `^\[Internal\] `, failed.Detail)
	assert.Contains(t, failed.Detail, "evaluator exploded")
	assert.Equal(t, "item T-02", failed.Item)

	require.Len(t, *events, 6)
	for i, ev := range *events {
		assert.Equal(t, i/2+1, ev.Current)
		assert.Equal(t, i%2 == 1, ev.CurrentCheck != nil)
	}
}

func TestRunAllRecoversPanic(t *testing.T) {
	panicky := func(context.Context, *checks.Env) (core.Verdict, error) {
		var m map[string]int
		m["boom"] = 1
		return core.Verdict{}, nil
	}
	obsCore, logs := observer.New(zap.DebugLevel)
	o, err := New([]checks.Entry{stub("T-01", panicky), stub("T-02", good)}, nil,
		WithSettleDelay(0), WithLogger(zap.New(obsCore).Sugar()))
	require.NoError(t, err)

	report := o.RunAll(context.Background(), nil)

	require.Len(t, report.Results, 2)
	assert.Equal(t, core.StatusCheckFailed, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "panic")
	assert.Equal(t, core.StatusGood, report.Results[1].Status)
	assert.Equal(t, 1, logs.FilterMessage("check panicked").Len())
}

func TestRunAllTreatsMissingVerdictAsFailure(t *testing.T) {
	empty := func(context.Context, *checks.Env) (core.Verdict, error) { return core.Verdict{}, nil }
	o, err := New([]checks.Entry{stub("T-01", empty)}, nil, WithSettleDelay(0))
	require.NoError(t, err)

	report := o.RunAll(context.Background(), nil)
	require.Len(t, report.Results, 1)
	assert.Equal(t, core.StatusCheckFailed, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Detail, "no verdict")
}

func TestRunAllCancelledBeforeStart(t *testing.T) {
	o, err := New(threeStubs(), nil, WithSettleDelay(0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events, sink := collect()
	report := o.RunAll(ctx, sink)

	assert.Empty(t, report.Results)
	assert.NotNil(t, report.Results)
	assert.Empty(t, *events)
}

func TestRunAllCancelledDuringSettle(t *testing.T) {
	o, err := New(threeStubs(), nil, WithSettleDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var events []core.ProgressEvent
	sink := core.FuncSink(func(ev core.ProgressEvent) {
		events = append(events, ev)
		if ev.CurrentCheck != nil {
			cancel()
		}
	})

	done := make(chan core.SecurityReport, 1)
	go func() { done <- o.RunAll(ctx, sink) }()

	select {
	case report := <-done:
		require.Len(t, report.Results, 1)
		assert.Equal(t, "T-01", report.Results[0].Code)
		assert.Len(t, events, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}

func TestRunningCheckFinishesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sawErr error
	selfCancel := func(evalCtx context.Context, _ *checks.Env) (core.Verdict, error) {
		cancel()
		sawErr = evalCtx.Err()
		return core.Goodf("finished"), nil
	}
	o, err := New([]checks.Entry{stub("T-01", selfCancel), stub("T-02", good)}, nil, WithSettleDelay(0))
	require.NoError(t, err)

	report := o.RunAll(ctx, nil)

	assert.NoError(t, sawErr)
	require.Len(t, report.Results, 1)
	assert.Equal(t, core.StatusGood, report.Results[0].Status)
}

func TestRunAllFeedsRecorder(t *testing.T) {
	rec := newRecorded()
	o, err := New(threeStubs(), nil, WithSettleDelay(0), WithRecorder(rec))
	require.NoError(t, err)

	o.RunAll(context.Background(), nil)

	assert.Equal(t, map[string]core.CheckStatus{
		"T-01": core.StatusGood,
		"T-02": core.StatusCheckFailed,
		"T-03": core.StatusGood,
	}, rec.verdicts)
	assert.Equal(t, []string{"T-01", "T-02", "T-03"}, rec.durations)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, core.Summary{Total: 3, Good: 2, CheckFailed: 1}, rec.runs[0])
}

func TestNewRejectsInvalidCatalog(t *testing.T) {
	_, err := New([]checks.Entry{stub("T-01", good), stub("T-01", good)}, nil)
	assert.ErrorIs(t, err, checks.ErrDuplicateCode)

	_, err = New([]checks.Entry{{Code: "T-01"}}, nil)
	assert.ErrorIs(t, err, checks.ErrNoEvaluator)
}

func TestSettleDelaySeparatesChecks(t *testing.T) {
	o, err := New(threeStubs(), nil, WithSettleDelay(20*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	o.RunAll(context.Background(), nil)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 3, o.Total())
}
