package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"monori/internal/core"
	"monori/internal/readers"
)

// Win32Service is a row of the service table.
type Win32Service struct {
	Name      string
	State     string
	StartMode string
}

func (Win32Service) Class() string { return "Win32_Service" }

// Win32LogicalDisk is a row of the logical-disk table. FileSystem is nil
// for unformatted volumes.
type Win32LogicalDisk struct {
	DeviceID   string
	DriveType  uint32
	FileSystem *string
}

func (Win32LogicalDisk) Class() string { return "Win32_LogicalDisk" }

const (
	driveTypeFixed = 3

	bcdeditProgram = "bcdedit"
	cachePath      = `Software\Microsoft\Windows\CurrentVersion\Internet Settings\Cache`
)

var (
	bootLoaderHeaders  = []string{"Windows Boot Loader", "Windows 부팅 로더"}
	bootManagerHeaders = []string{"Windows Boot Manager", "Windows 부팅 관리자"}
)

// PC-04
func evalUnnecessaryServices(ctx context.Context, env *Env) (core.Verdict, error) {
	services, err := queryRows[Win32Service](ctx, env)
	if err != nil {
		return core.FailedVerdictf(err, "서비스 목록을 조회할 수 없습니다."), nil
	}

	blocked := lo.SliceToMap(env.Policy.ServiceBlocklist, func(name string) (string, bool) {
		return strings.ToLower(name), true
	})
	var running, automatic, installed []string
	for _, svc := range services {
		if !blocked[strings.ToLower(svc.Name)] {
			continue
		}
		installed = append(installed, fmt.Sprintf("%s(%s/%s)", svc.Name, svc.State, svc.StartMode))
		if strings.EqualFold(svc.State, "Running") {
			running = append(running, svc.Name)
		}
		if strings.EqualFold(svc.StartMode, "Auto") || strings.EqualFold(svc.StartMode, "Automatic") {
			automatic = append(automatic, svc.Name)
		}
	}

	if len(running) == 0 && len(automatic) == 0 {
		observed := "없음"
		if len(installed) > 0 {
			observed = strings.Join(installed, ", ")
		}
		return core.Goodf("보안에 불필요한 서비스가 실행 중이거나 자동 시작으로 설정되어 있지 않습니다.\n조회된 서비스: %d개, 설치된 점검 대상 서비스: %s",
			len(services), observed), nil
	}

	var b strings.Builder
	b.WriteString("보안에 불필요한 서비스가 실행 중이거나 자동 시작으로 설정되어 있습니다.")
	if len(running) > 0 {
		fmt.Fprintf(&b, "\n실행 중인 서비스: %s", strings.Join(running, ", "))
	}
	if len(automatic) > 0 {
		fmt.Fprintf(&b, "\n자동 시작 설정된 서비스: %s", strings.Join(automatic, ", "))
	}
	return core.Verdict{Status: core.StatusVulnerable, Detail: b.String()}, nil
}

// PC-16
func evalNTFS(ctx context.Context, env *Env) (core.Verdict, error) {
	disks, err := queryRows[Win32LogicalDisk](ctx, env)
	if err != nil {
		return core.FailedVerdictf(err, "논리 디스크 목록을 조회할 수 없습니다."), nil
	}

	fixed := lo.Filter(disks, func(d Win32LogicalDisk, _ int) bool { return d.DriveType == driveTypeFixed })
	describe := func(d Win32LogicalDisk) string {
		fs := "Unknown"
		if d.FileSystem != nil && *d.FileSystem != "" {
			fs = *d.FileSystem
		}
		return fmt.Sprintf("%s (%s)", d.DeviceID, fs)
	}
	nonNTFS := lo.Filter(fixed, func(d Win32LogicalDisk, _ int) bool {
		return d.FileSystem == nil || !strings.EqualFold(*d.FileSystem, "NTFS")
	})

	if len(nonNTFS) > 0 {
		return core.Vulnerablef("NTFS 파일 시스템을 사용하지 않는 드라이브가 있습니다: %s",
			strings.Join(lo.Map(nonNTFS, func(d Win32LogicalDisk, _ int) string { return describe(d) }), ", ")), nil
	}
	if len(fixed) == 0 {
		return core.Goodf("점검 대상 고정 드라이브가 없습니다. (조회된 드라이브: %d개, 고정 드라이브: 0개)", len(disks)), nil
	}
	return core.Goodf("모든 고정 드라이브가 NTFS 파일 시스템을 사용하고 있습니다: %s",
		strings.Join(lo.Map(fixed, func(d Win32LogicalDisk, _ int) string { return describe(d) }), ", ")), nil
}

// PC-17
func evalMultiBoot(ctx context.Context, env *Env) (core.Verdict, error) {
	out, err := env.Runner.Run(ctx, bcdeditProgram, "/enum")
	if err != nil {
		return core.FailedVerdictf(err, "BCDEdit 명령을 실행할 수 없습니다."), nil
	}
	if !out.Success() {
		fail := core.NewFailure(core.ToolFailure, bcdeditProgram,
			fmt.Errorf("exit code %d: %s", out.ExitCode, core.Truncate(strings.TrimSpace(out.ErrText()+out.Text()), core.MaxFragment)))
		return core.FailedVerdictf(fail, "BCDEdit 명령 실행에 실패했습니다. 관리자 권한이 필요할 수 있습니다."), nil
	}

	text := out.Text()
	loaders, managers := countBootHeaders(text)
	if loaders == 0 && managers == 0 {
		fail := core.NewParseFailure(bcdeditProgram, text, fmt.Errorf("no boot manager or boot loader entries"))
		return core.FailedVerdictf(fail, "부팅 구성 출력을 해석할 수 없습니다."), nil
	}

	limit := env.Policy.MaxBootEntries
	if loaders <= limit {
		return core.Goodf("멀티 부팅 설정이 되어 있지 않습니다. (운영체제 항목 수: %d)", loaders), nil
	}
	return core.Vulnerablef("멀티 부팅 설정이 되어 있습니다. 운영체제 항목 수: %d (기준: %d 이하)", loaders, limit), nil
}

// countBootHeaders counts boot loader and boot manager section headers in
// bcdedit output, in either English or Korean.
func countBootHeaders(text string) (loaders, managers int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if lo.ContainsBy(bootLoaderHeaders, func(h string) bool { return strings.EqualFold(line, h) }) {
			loaders++
		}
		if lo.ContainsBy(bootManagerHeaders, func(h string) bool { return strings.EqualFold(line, h) }) {
			managers++
		}
	}
	return loaders, managers
}

// PC-18
func evalBrowserCache(_ context.Context, env *Env) (core.Verdict, error) {
	persistent, ok, err := env.Registry.ReadDWORD(readers.CurrentUser, cachePath, "Persistent")
	if err != nil {
		return core.FailedVerdictf(err, "임시 인터넷 파일 설정을 읽을 수 없습니다."), nil
	}
	if !ok {
		return core.Vulnerablef("해당 설정(Persistent)이 존재하지 않아 기본값(1)으로 간주됩니다. 임시 인터넷 파일이 자동으로 삭제되지 않을 수 있습니다. (%s: 미설정)",
			readers.ValuePath(readers.CurrentUser, cachePath, "Persistent")), nil
	}
	switch persistent {
	case 0:
		return core.Goodf("브라우저 종료 시 임시 인터넷 파일을 삭제하도록 설정되어 있습니다. (Persistent=0)"), nil
	case 1:
		return core.Vulnerablef("브라우저 종료 시 임시 인터넷 파일이 삭제되지 않도록 설정되어 있습니다. (Persistent=1)"), nil
	}
	return core.Vulnerablef("알 수 없는 설정값입니다. (Persistent=%d)", persistent), nil
}
