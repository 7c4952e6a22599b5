package checks

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"monori/internal/core"
)

// Win32QuickFixEngineering is a row of the installed-hotfix table.
type Win32QuickFixEngineering struct {
	HotFixID    string
	Description string
	InstalledOn string
}

func (Win32QuickFixEngineering) Class() string { return "Win32_QuickFixEngineering" }

// installedOnLayouts are the date forms the hotfix table reports across
// locales.
var installedOnLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"20060102",
	"2006. 1. 2.",
	"2006-1-2",
	"02.01.2006",
}

// filetimeEpoch is 1601-01-01 in Unix seconds.
const filetimeEpoch = -11644473600

// parseInstalledOn parses a hotfix installation date. Some hosts report a
// hexadecimal FILETIME instead of a date.
func parseInstalledOn(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range installedOnLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	if len(s) == 16 {
		if ticks, err := strconv.ParseUint(s, 16, 64); err == nil {
			secs := int64(ticks/1e7) + filetimeEpoch
			return time.Unix(secs, 0), true
		}
	}
	return time.Time{}, false
}

type datedHotfix struct {
	ID   string
	Date time.Time
}

// PC-05
func evalPatchLevel(ctx context.Context, env *Env) (core.Verdict, error) {
	rows, err := queryRows[Win32QuickFixEngineering](ctx, env)
	if err != nil {
		return core.FailedVerdictf(err, "핫픽스 설치 이력을 조회할 수 없습니다."), nil
	}
	if len(rows) == 0 {
		return core.Vulnerablef("설치된 보안 패치(핫픽스)가 없습니다. (조회된 핫픽스: 0개)"), nil
	}

	var dated []datedHotfix
	for _, r := range rows {
		if t, ok := parseInstalledOn(r.InstalledOn); ok {
			dated = append(dated, datedHotfix{ID: r.HotFixID, Date: t})
		}
	}
	if len(dated) == 0 {
		ids := lo.Map(rows, func(r Win32QuickFixEngineering, _ int) string { return r.HotFixID })
		return core.Manualf("핫픽스 %d개가 설치되어 있으나 설치 날짜를 확인할 수 없어 수동 확인이 필요합니다: %s",
			len(rows), strings.Join(lo.Slice(ids, 0, 5), ", ")), nil
	}

	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date.After(dated[j].Date) })
	newest := dated[0]
	recent := lo.Map(lo.Slice(dated, 0, 3), func(h datedHotfix, _ int) string {
		return fmt.Sprintf("%s(%s)", h.ID, h.Date.Format("2006-01-02"))
	})

	window := env.Policy.PatchWindowDays
	age := int(env.now().Sub(newest.Date).Hours() / 24)
	if age <= window {
		return core.Goodf("최근 %d일 이내에 보안 패치가 설치되었습니다. 최근 설치: %s, 경과 일수: %d일 (기준: %d일 이내)",
			window, strings.Join(recent, ", "), age, window), nil
	}
	return core.Vulnerablef("최근 %d일 동안 설치된 보안 패치가 없습니다. 마지막 설치: %s, 경과 일수: %d일",
		window, strings.Join(recent, ", "), age), nil
}
