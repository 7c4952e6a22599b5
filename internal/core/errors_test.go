package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOfWrappedFailure(t *testing.T) {
	f := NewFailure(AccessDenied, `HKLM\SOFTWARE\X (Y)`, errors.New("access is denied"))
	wrapped := fmt.Errorf("read policy: %w", f)

	assert.Equal(t, AccessDenied, ClassOf(wrapped))
	assert.Equal(t, Internal, ClassOf(errors.New("boom")))
}

func TestFailedVerdictNamesClass(t *testing.T) {
	v := FailedVerdictf(NewFailure(ToolFailure, "secedit", errors.New("exit status 5")), "보안 정책을 내보낼 수 없습니다.")

	assert.Equal(t, StatusCheckFailed, v.Status)
	assert.True(t, strings.HasPrefix(v.Detail, "[ToolFailure] "))
	assert.Contains(t, v.Detail, "보안 정책을 내보낼 수 없습니다.")
	assert.Contains(t, v.Detail, "exit status 5")
}

func TestParseFailureTruncatesFragment(t *testing.T) {
	long := strings.Repeat("가", 500)
	f := NewParseFailure("netsh", long, errors.New("no profile header"))

	assert.Equal(t, MaxFragment, len([]rune(f.Fragment)))
	assert.True(t, strings.HasSuffix(f.Fragment, "…"))
	assert.Contains(t, FailedVerdict(f).Detail, "[Parse]")
}

func TestTruncateShortString(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "a…", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}
