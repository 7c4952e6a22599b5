// Package checks holds the audit catalog: each entry pairs fixed metadata
// with an evaluator that observes the host through the readers.
package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"monori/internal/core"
)

// Evaluator decides one check. Infrastructure problems are reported as a
// CheckFailed verdict; a returned error means the evaluator itself broke.
type Evaluator func(ctx context.Context, env *Env) (core.Verdict, error)

// Entry is one catalog row.
type Entry struct {
	Code       string
	Category   core.Category
	Item       string
	Importance core.Importance
	// Intent is the progress message shown while the check runs.
	Intent   string
	Evaluate Evaluator
}

// Result stamps the entry's classification onto v.
func (e Entry) Result(v core.Verdict) core.CheckResult {
	return core.CheckResult{
		Category:   e.Category,
		Code:       e.Code,
		Item:       e.Item,
		Importance: e.Importance,
		Status:     v.Status,
		Detail:     v.Detail,
	}
}

var (
	ErrEmptyCode     = errors.New("catalog entry has an empty code")
	ErrDuplicateCode = errors.New("catalog code is not unique")
	ErrNoEvaluator   = errors.New("catalog entry has no evaluator")
	ErrUnknownCode   = errors.New("unknown check code")
)

var catalog = []Entry{
	{
		Code: "PC-01", Category: core.CategoryAccount, Importance: core.ImportanceHigh,
		Item:     "패스워드의 주기적 변경",
		Intent:   "최대 암호 사용 기간 점검",
		Evaluate: evalPasswordAge,
	},
	{
		Code: "PC-02", Category: core.CategoryAccount, Importance: core.ImportanceHigh,
		Item:     "패스워드 정책이 해당 기관의 보안 정책에 적합하게 설정",
		Intent:   "암호 길이 및 복잡성 정책 점검",
		Evaluate: evalPasswordPolicy,
	},
	{
		Code: "PC-04", Category: core.CategoryService, Importance: core.ImportanceHigh,
		Item:     "항목의 불필요한 서비스 제거",
		Intent:   "불필요한 서비스 점검",
		Evaluate: evalUnnecessaryServices,
	},
	{
		Code: "PC-05", Category: core.CategoryPatch, Importance: core.ImportanceHigh,
		Item:     "최신 보안 패치 적용",
		Intent:   "보안 패치 설치 이력 점검",
		Evaluate: evalPatchLevel,
	},
	{
		Code: "PC-11", Category: core.CategorySecurity, Importance: core.ImportanceHigh,
		Item:     "OS에서 제공하는 침입차단 기능 활성화",
		Intent:   "Windows 방화벽 상태 점검",
		Evaluate: evalFirewall,
	},
	{
		Code: "PC-12", Category: core.CategorySecurity, Importance: core.ImportanceHigh,
		Item:     "화면보호기 대기 시간 설정 및 재시작 시 암호 보호 설정",
		Intent:   "화면보호기 설정 점검",
		Evaluate: evalScreenSaver,
	},
	{
		Code: "PC-13", Category: core.CategorySecurity, Importance: core.ImportanceHigh,
		Item:     "CD, DVD, USB 메모리 등과 같은 미디어의 자동실행 방지등 이동식 미디어에 대한 보안대책 수립",
		Intent:   "이동식 미디어 자동 실행 정책 점검",
		Evaluate: evalAutorun,
	},
	{
		Code: "PC-15", Category: core.CategoryAccount, Importance: core.ImportanceMedium,
		Item:     "복구 콘솔에서 자동 로그온을 금지하도록 설정",
		Intent:   "복구 콘솔 자동 로그온 설정 점검",
		Evaluate: evalRecoveryConsole,
	},
	{
		Code: "PC-16", Category: core.CategoryService, Importance: core.ImportanceMedium,
		Item:     "파일 시스템이 NTFS 포맷으로 설정",
		Intent:   "고정 드라이브 파일 시스템 점검",
		Evaluate: evalNTFS,
	},
	{
		Code: "PC-17", Category: core.CategoryService, Importance: core.ImportanceMedium,
		Item:     "대상 시스템이 Windows 서버를 제외한 다른 OS로 멀티 부팅이 가능하지 않도록 설정",
		Intent:   "멀티 부팅 구성 점검",
		Evaluate: evalMultiBoot,
	},
	{
		Code: "PC-18", Category: core.CategoryService, Importance: core.ImportanceLow,
		Item:     "브라우저 종료 시 임시 인터넷 파일 폴더의 내용을 삭제하도록 설정",
		Intent:   "임시 인터넷 파일 삭제 설정 점검",
		Evaluate: evalBrowserCache,
	},
	{
		Code: "PC-19", Category: core.CategorySecurity, Importance: core.ImportanceMedium,
		Item:     "원격 지원을 금지하도록 정책이 설정",
		Intent:   "원격 지원 및 원격 데스크톱 설정 점검",
		Evaluate: evalRemoteAccess,
	},
}

// Catalog returns the checks of this build in run order. Each call returns
// a fresh copy.
func Catalog() []Entry {
	return append([]Entry(nil), catalog...)
}

// Codes lists the codes of entries in order.
func Codes(entries []Entry) []string {
	return lo.Map(entries, func(e Entry, _ int) string { return e.Code })
}

// Select returns the catalog entries named by codes, in catalog order.
// Codes are matched case-insensitively; an empty list selects everything.
func Select(codes []string) ([]Entry, error) {
	all := Catalog()
	if len(codes) == 0 {
		return all, nil
	}
	byCode := lo.KeyBy(all, func(e Entry) string { return e.Code })
	want := map[string]bool{}
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if _, ok := byCode[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCode, c)
		}
		want[c] = true
	}
	return lo.Filter(all, func(e Entry, _ int) bool { return want[e.Code] }), nil
}

// Validate rejects a catalog with empty or repeated codes or missing
// evaluators.
func Validate(entries []Entry) error {
	for _, e := range entries {
		if e.Code == "" {
			return ErrEmptyCode
		}
		if e.Evaluate == nil {
			return fmt.Errorf("%w: %s", ErrNoEvaluator, e.Code)
		}
	}
	if dups := lo.FindDuplicates(Codes(entries)); len(dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, strings.Join(dups, ", "))
	}
	return nil
}
