package checks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"monori/internal/config"
	"monori/internal/core"
	"monori/internal/readers"
	"monori/internal/secpol"
)

// Env is what evaluators observe the host through. One Env serves a whole
// run; evaluators keep no state in it.
type Env struct {
	Registry readers.RegistryReader
	Query    readers.QueryClient
	Runner   readers.Runner
	// Fs and TempDir hold temporary artifacts such as the policy export.
	Fs      afero.Fs
	TempDir string
	Policy  config.Policy
	Now     func() time.Time
}

// NewEnv wires the readers with the default policy, the OS filesystem and
// the platform temp directory.
func NewEnv(reg readers.RegistryReader, q readers.QueryClient, runner readers.Runner) *Env {
	return &Env{
		Registry: reg,
		Query:    q,
		Runner:   runner,
		Fs:       afero.NewOsFs(),
		TempDir:  os.TempDir(),
		Policy:   config.DefaultPolicy(),
		Now:      time.Now,
	}
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// exportPolicy runs a fresh policy export for the calling check.
func (e *Env) exportPolicy(ctx context.Context) (*secpol.Policy, error) {
	return secpol.Export(ctx, e.Runner, e.Fs, e.TempDir)
}

// retryTransport runs fn and, if it fails with a Transport failure, runs it
// once more.
func retryTransport(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || core.ClassOf(err) != core.Transport || ctx.Err() != nil {
		return err
	}
	return fn()
}

// queryRows reads every row of T's table, retrying a dropped connection once.
func queryRows[T readers.Row](ctx context.Context, e *Env) ([]T, error) {
	var rows []T
	err := retryTransport(ctx, func() error {
		var err error
		rows, err = readers.Query[T](ctx, e.Query)
		return err
	})
	return rows, err
}

// exportFailed is the verdict of a secpol-based check whose export did not
// produce a policy.
func exportFailed(err error) core.Verdict {
	switch core.ClassOf(err) {
	case core.ToolFailure, core.AccessDenied:
		return core.FailedVerdictf(err, "보안 정책을 내보낼 수 없습니다. 관리자 권한(administrator)으로 실행해야 합니다.")
	}
	return core.FailedVerdictf(err, "내보낸 보안 정책을 해석할 수 없습니다.")
}

// notObserved builds the NotObserved failure of a value the check needs.
func notObserved(source string) error {
	return core.NewFailure(core.NotObserved, source, fmt.Errorf("value not present"))
}

// orUnset renders an optional observed value.
func orUnset(v string, ok bool) string {
	if !ok {
		return "미설정"
	}
	return v
}
