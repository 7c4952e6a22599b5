package core

import (
	"errors"
	"fmt"
	"strings"
)

// FailureClass classifies why a check could not observe system state.
type FailureClass int

const (
	// NotObserved: a key, value or row is absent.
	NotObserved FailureClass = iota + 1
	// AccessDenied: the process lacks a privilege.
	AccessDenied
	// ToolFailure: an external tool exited non-zero or could not be launched.
	ToolFailure
	// Parse: observed data had an unexpected format.
	Parse
	// Transport: the management-query connection was refused or reset.
	Transport
	// Internal: any error outside the taxonomy, e.g. a recovered panic.
	Internal
)

// MaxFragment bounds the raw data quoted in a Parse failure.
const MaxFragment = 200

var failureNames = []string{"", "NotObserved", "AccessDenied", "ToolFailure", "Parse", "Transport", "Internal"}

var failureLabels = []string{"",
	"값을 찾을 수 없습니다",
	"권한이 부족합니다",
	"외부 도구 실행에 실패했습니다",
	"수집된 데이터의 형식을 해석할 수 없습니다",
	"시스템 관리 인터페이스에 연결할 수 없습니다",
	"점검 중 내부 오류가 발생했습니다",
}

func (c FailureClass) String() string { return label(failureNames, int(c)) }

// Label is the consumer-facing description of the class.
func (c FailureClass) Label() string { return label(failureLabels, int(c)) }

// Failure is the structured error readers and tools return.
type Failure struct {
	Class FailureClass
	// Source names what was being read: a registry path and value, a
	// program, or a management table.
	Source string
	// Fragment is the offending raw data of a Parse failure.
	Fragment string
	Err      error
}

func NewFailure(class FailureClass, source string, err error) *Failure {
	return &Failure{Class: class, Source: source, Err: err}
}

// NewParseFailure records fragment, truncated to MaxFragment characters.
func NewParseFailure(source, fragment string, err error) *Failure {
	return &Failure{Class: Parse, Source: source, Fragment: Truncate(fragment, MaxFragment), Err: err}
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Class.String())
	if f.Source != "" {
		b.WriteString(" ")
		b.WriteString(f.Source)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	if f.Fragment != "" {
		fmt.Fprintf(&b, " (fragment: %q)", f.Fragment)
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// ClassOf returns the class of the first Failure in err's chain, or
// Internal when there is none.
func ClassOf(err error) FailureClass {
	var f *Failure
	if errors.As(err, &f) {
		return f.Class
	}
	return Internal
}

// FailedVerdict turns an infrastructure error into a CheckFailed verdict.
// The detail starts with the failure class so the report names it.
func FailedVerdict(err error) Verdict {
	return FailedVerdictf(err, "")
}

// FailedVerdictf is FailedVerdict with a leading explanation.
func FailedVerdictf(err error, format string, args ...interface{}) Verdict {
	class := ClassOf(err)
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", class)
	if format != "" {
		fmt.Fprintf(&b, format, args...)
		b.WriteString(" ")
	}
	b.WriteString(class.Label())
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return Verdict{Status: StatusCheckFailed, Detail: b.String()}
}

// Truncate shortens s to at most n characters, the last of which marks
// the cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(r[:n-1]) + "…"
}
