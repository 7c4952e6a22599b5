package core

import (
	"fmt"
	"runtime"
	"time"

	"monori/internal/utils"
)

const (
	// SchemaVersion is stamped on every report.
	SchemaVersion = "1.0.0"
	// DateTimeLayout is the local timestamp format of SecurityReport.DateTime.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// CheckResult is one row of the report. Field labels are part of the wire
// contract with downstream consumers.
type CheckResult struct {
	Category   Category    `json:"분류"`
	Code       string      `json:"항목코드"`
	Item       string      `json:"점검항목"`
	Importance Importance  `json:"중요도"`
	Status     CheckStatus `json:"점검결과"`
	Detail     string      `json:"점검내용"`
}

// Verdict is what an evaluator decides. Classification (code, category,
// item, importance) is owned by the catalog, not by the evaluator.
type Verdict struct {
	Status CheckStatus
	Detail string
}

func Goodf(format string, args ...interface{}) Verdict {
	return Verdict{Status: StatusGood, Detail: fmt.Sprintf(format, args...)}
}

func Vulnerablef(format string, args ...interface{}) Verdict {
	return Verdict{Status: StatusVulnerable, Detail: fmt.Sprintf(format, args...)}
}

func Manualf(format string, args ...interface{}) Verdict {
	return Verdict{Status: StatusManualCheck, Detail: fmt.Sprintf(format, args...)}
}

// SecurityReport is the aggregate of one audit run, in catalog order.
type SecurityReport struct {
	ComputerName string        `json:"ComputerName"`
	DateTime     string        `json:"DateTime"`
	OS           string        `json:"OS"`
	Version      string        `json:"Version"`
	Results      []CheckResult `json:"Results"`
}

// NewSecurityReport stamps host name, local time, OS identifier and schema
// version onto results.
func NewSecurityReport(results []CheckResult) SecurityReport {
	return newSecurityReport(results, utils.HostName(), time.Now())
}

func newSecurityReport(results []CheckResult, host string, now time.Time) SecurityReport {
	if results == nil {
		results = []CheckResult{}
	}
	return SecurityReport{
		ComputerName: host,
		DateTime:     now.Format(DateTimeLayout),
		OS:           runtime.GOOS,
		Version:      SchemaVersion,
		Results:      results,
	}
}

// Summary counts results per verdict.
type Summary struct {
	Total       int
	Good        int
	Vulnerable  int
	CheckFailed int
	ManualCheck int
}

func (r SecurityReport) Summary() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusGood:
			s.Good++
		case StatusVulnerable:
			s.Vulnerable++
		case StatusCheckFailed:
			s.CheckFailed++
		case StatusManualCheck:
			s.ManualCheck++
		}
	}
	return s
}

// Count returns the number of results with the given status.
func (s Summary) Count(status CheckStatus) int {
	switch status {
	case StatusGood:
		return s.Good
	case StatusVulnerable:
		return s.Vulnerable
	case StatusCheckFailed:
		return s.CheckFailed
	case StatusManualCheck:
		return s.ManualCheck
	}
	return 0
}
