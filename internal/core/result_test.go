package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []CheckResult {
	return []CheckResult{
		{Category: CategorySecurity, Code: "PC-12", Item: "화면보호기", Importance: ImportanceHigh, Status: StatusGood, Detail: "대기 시간 300초"},
		{Category: CategoryService, Code: "PC-16", Item: "NTFS", Importance: ImportanceMedium, Status: StatusVulnerable, Detail: "D: (FAT32)"},
		{Category: CategoryAccount, Code: "PC-01", Item: "패스워드", Importance: ImportanceHigh, Status: StatusCheckFailed, Detail: "[ToolFailure] 관리자 권한"},
		{Category: CategoryPatch, Code: "PC-05", Item: "패치", Importance: ImportanceLow, Status: StatusManualCheck, Detail: "KB5030219"},
	}
}

func TestCheckResultWireLabels(t *testing.T) {
	b, err := json.Marshal(sampleResults()[0])
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, `"분류":"보안 관리"`)
	assert.Contains(t, s, `"항목코드":"PC-12"`)
	assert.Contains(t, s, `"중요도":"상"`)
	assert.Contains(t, s, `"점검결과":"양호"`)
	assert.Contains(t, s, `"점검내용":"대기 시간 300초"`)
}

func TestStatusAndImportanceLabels(t *testing.T) {
	want := map[CheckStatus]string{
		StatusGood:        `"양호"`,
		StatusVulnerable:  `"취약"`,
		StatusCheckFailed: `"점검 실패"`,
		StatusManualCheck: `"수동 점검"`,
	}
	for st, lbl := range want {
		b, err := json.Marshal(st)
		require.NoError(t, err)
		assert.Equal(t, lbl, string(b))
	}

	for imp, lbl := range map[Importance]string{ImportanceHigh: `"상"`, ImportanceMedium: `"중"`, ImportanceLow: `"하"`} {
		b, err := json.Marshal(imp)
		require.NoError(t, err)
		assert.Equal(t, lbl, string(b))
	}
}

func TestZeroValuesDoNotEncode(t *testing.T) {
	_, err := json.Marshal(CheckStatus(0))
	assert.Error(t, err)
	_, err = json.Marshal(CheckResult{Code: "PC-99"})
	assert.Error(t, err)
}

func TestUnknownLabelRejected(t *testing.T) {
	var s CheckStatus
	assert.Error(t, json.Unmarshal([]byte(`"Good"`), &s))
	var imp Importance
	assert.Error(t, json.Unmarshal([]byte(`"최상"`), &imp))
}

func TestReportRoundTrip(t *testing.T) {
	r := newSecurityReport(sampleResults(), "WS-042", time.Date(2026, 10, 15, 9, 5, 7, 0, time.Local))
	assert.Equal(t, "2026-10-15 09:05:07", r.DateTime)
	assert.Equal(t, SchemaVersion, r.Version)

	var buf bytes.Buffer
	require.NoError(t, EncodeReport(&buf, r))
	assert.True(t, strings.Contains(buf.String(), `"ComputerName": "WS-042"`))

	got, err := DecodeReport(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyReportEncodesEmptyResults(t *testing.T) {
	r := newSecurityReport(nil, "host", time.Now())
	var buf bytes.Buffer
	require.NoError(t, EncodeReport(&buf, r))
	assert.Contains(t, buf.String(), `"Results": []`)
}

func TestWriteAndReadReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := newSecurityReport(sampleResults(), "host", time.Now())

	require.NoError(t, WriteReport(fs, "out/report.json", r))
	got, err := ReadReport(fs, "out/report.json")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	// a second run replaces the first
	r2 := newSecurityReport(sampleResults()[:1], "host", time.Now())
	require.NoError(t, WriteReport(fs, "out/report.json", r2))
	got, err = ReadReport(fs, "out/report.json")
	require.NoError(t, err)
	assert.Len(t, got.Results, 1)
}

func TestSummary(t *testing.T) {
	s := newSecurityReport(sampleResults(), "host", time.Now()).Summary()
	assert.Equal(t, Summary{Total: 4, Good: 1, Vulnerable: 1, CheckFailed: 1, ManualCheck: 1}, s)
	assert.Equal(t, 1, s.Count(StatusManualCheck))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("patch")
	require.NoError(t, err)
	assert.Equal(t, CategoryPatch, c)

	c, err = ParseCategory("계정 관리")
	require.NoError(t, err)
	assert.Equal(t, CategoryAccount, c)

	_, err = ParseCategory("network")
	assert.Error(t, err)
}
