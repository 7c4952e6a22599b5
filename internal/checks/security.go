package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"monori/internal/core"
	"monori/internal/readers"
)

const (
	netshProgram       = "netsh"
	firewallPolicyPath = `SYSTEM\CurrentControlSet\Services\SharedAccess\Parameters\FirewallPolicy`
	desktopPath        = `Control Panel\Desktop`
	explorerPolicyPath = `Software\Microsoft\Windows\CurrentVersion\Policies\Explorer`
	remoteAssistPath   = `SYSTEM\CurrentControlSet\Control\Remote Assistance`
	terminalServerPath = `SYSTEM\CurrentControlSet\Control\Terminal Server`
)

// firewallProfile names one firewall profile, the section headers netsh
// prints for it and its key under the firewall policy.
type firewallProfile struct {
	Name        string
	Headers     []string
	RegistryKey string
}

var firewallProfiles = []firewallProfile{
	{Name: "Domain", Headers: []string{"Domain Profile Settings:", "도메인 프로필 설정:"}, RegistryKey: "DomainProfile"},
	{Name: "Private", Headers: []string{"Private Profile Settings:", "개인 프로필 설정:"}, RegistryKey: "StandardProfile"},
	{Name: "Public", Headers: []string{"Public Profile Settings:", "공용 프로필 설정:"}, RegistryKey: "PublicProfile"},
}

// profileState is the observed state of one firewall profile.
type profileState struct {
	Profile string
	Enabled bool
	// Raw is the observed value, e.g. "ON", "사용" or "EnableFirewall=1".
	Raw string
}

// PC-11
func evalFirewall(ctx context.Context, env *Env) (core.Verdict, error) {
	out, err := env.Runner.Run(ctx, netshProgram, "advfirewall", "show", "allprofiles", "state")
	if err != nil {
		return core.FailedVerdictf(err, "방화벽 상태를 확인할 수 없습니다."), nil
	}
	if !out.Success() {
		fail := core.NewFailure(core.ToolFailure, netshProgram,
			fmt.Errorf("exit code %d: %s", out.ExitCode, core.Truncate(strings.TrimSpace(out.ErrText()+out.Text()), core.MaxFragment)))
		return core.FailedVerdictf(fail, "방화벽 상태를 확인할 수 없습니다."), nil
	}

	states, parseErr := parseFirewallState(out.Text())
	source := "netsh"
	if parseErr != nil {
		var regErr error
		states, regErr = firewallStateFromRegistry(env.Registry)
		if regErr != nil {
			return core.FailedVerdictf(multierr.Append(parseErr, regErr), "방화벽 상태를 해석할 수 없습니다."), nil
		}
		source = "레지스트리 FirewallPolicy"
	}

	allEnabled := true
	lines := make([]string, 0, len(states))
	for _, s := range states {
		state := "활성화"
		if !s.Enabled {
			state = "비활성화"
			allEnabled = false
		}
		lines = append(lines, fmt.Sprintf("- %s 프로필: %s (%s)", s.Profile, state, s.Raw))
	}
	if allEnabled {
		return core.Goodf("모든 Windows 방화벽 프로필이 활성화되어 있습니다. (출처: %s)\n%s", source, strings.Join(lines, "\n")), nil
	}
	return core.Vulnerablef("일부 Windows 방화벽 프로필이 비활성화되어 있습니다. (출처: %s)\n%s", source, strings.Join(lines, "\n")), nil
}

// parseFirewallState reads the State row of each profile section of
// `netsh advfirewall show allprofiles state`. Only the exact values ON and
// 사용 count as enabled; OFF and 사용 안 함 count as disabled.
func parseFirewallState(text string) ([]profileState, error) {
	found := map[string]profileState{}
	current := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if p, ok := profileForHeader(line); ok {
			current = p
			continue
		}
		if current == "" {
			continue
		}
		if _, done := found[current]; done {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !(strings.EqualFold(fields[0], "State") || fields[0] == "상태") {
			continue
		}
		value := strings.Join(fields[1:], " ")
		switch {
		case strings.EqualFold(value, "ON") || value == "사용":
			found[current] = profileState{Profile: current, Enabled: true, Raw: fields[0] + " " + value}
		case strings.EqualFold(value, "OFF") || value == "사용 안 함":
			found[current] = profileState{Profile: current, Enabled: false, Raw: fields[0] + " " + value}
		default:
			return nil, core.NewParseFailure(netshProgram, line, fmt.Errorf("unrecognised %s profile state %q", current, value))
		}
	}

	states := make([]profileState, 0, len(firewallProfiles))
	for _, p := range firewallProfiles {
		s, ok := found[p.Name]
		if !ok {
			return nil, core.NewParseFailure(netshProgram, text, fmt.Errorf("no state for the %s profile", p.Name))
		}
		states = append(states, s)
	}
	return states, nil
}

func profileForHeader(line string) (string, bool) {
	for _, p := range firewallProfiles {
		for _, h := range p.Headers {
			if strings.EqualFold(line, h) {
				return p.Name, true
			}
		}
	}
	return "", false
}

// firewallStateFromRegistry reads EnableFirewall of each profile from the
// firewall policy keys.
func firewallStateFromRegistry(reg readers.RegistryReader) ([]profileState, error) {
	states := make([]profileState, 0, len(firewallProfiles))
	for _, p := range firewallProfiles {
		path := firewallPolicyPath + `\` + p.RegistryKey
		v, ok, err := reg.ReadDWORD(readers.LocalMachine, path, "EnableFirewall")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, notObserved(readers.ValuePath(readers.LocalMachine, path, "EnableFirewall"))
		}
		states = append(states, profileState{Profile: p.Name, Enabled: v == 1, Raw: fmt.Sprintf("EnableFirewall=%d", v)})
	}
	return states, nil
}

// PC-12
func evalScreenSaver(_ context.Context, env *Env) (core.Verdict, error) {
	read := func(name string) (string, bool, error) {
		v, ok, err := env.Registry.ReadString(readers.CurrentUser, desktopPath, name)
		return strings.TrimSpace(v), ok, err
	}
	active, activeOK, err := read("ScreenSaveActive")
	if err != nil {
		return core.FailedVerdictf(err, "화면보호기 설정을 읽을 수 없습니다."), nil
	}
	timeout, timeoutOK, err := read("ScreenSaveTimeOut")
	if err != nil {
		return core.FailedVerdictf(err, "화면보호기 설정을 읽을 수 없습니다."), nil
	}
	secure, secureOK, err := read("ScreenSaverIsSecure")
	if err != nil {
		return core.FailedVerdictf(err, "화면보호기 설정을 읽을 수 없습니다."), nil
	}

	seconds := 0
	if timeoutOK && timeout != "" {
		seconds, err = strconv.Atoi(timeout)
		if err != nil {
			return core.FailedVerdictf(core.NewParseFailure(readers.ValuePath(readers.CurrentUser, desktopPath, "ScreenSaveTimeOut"), timeout, err),
				"화면보호기 대기 시간을 해석할 수 없습니다."), nil
		}
	}

	limit := env.Policy.ScreenSaverTimeoutSecs
	if active == "1" && seconds > 0 && seconds <= limit && secure == "1" {
		return core.Goodf("화면보호기가 활성화되어 있고, 대기 시간이 %d초 이하(%d초)이며, 암호가 설정되어 있습니다.", limit, seconds), nil
	}
	return core.Vulnerablef("화면보호기 설정이 올바르지 않습니다. ScreenSaveActive=%s, ScreenSaveTimeOut=%s (기준: 1~%d초), ScreenSaverIsSecure=%s",
		orUnset(active, activeOK), orUnset(timeout, timeoutOK), limit, orUnset(secure, secureOK)), nil
}

// PC-13
func evalAutorun(_ context.Context, env *Env) (core.Verdict, error) {
	type target struct {
		name string
		want uint32
	}
	targets := []target{{"NoDriveTypeAutoRun", 255}, {"DisableAutoplay", 1}}

	compliant := false
	var found []string
	var errs error
	for _, hive := range []readers.Hive{readers.CurrentUser, readers.LocalMachine} {
		for _, t := range targets {
			v, ok, err := env.Registry.ReadDWORD(hive, explorerPolicyPath, t.name)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if !ok {
				continue
			}
			found = append(found, fmt.Sprintf("%s %s = %d", hive, t.name, v))
			if v == t.want {
				compliant = true
			}
		}
	}

	switch {
	case compliant:
		return core.Goodf("자동 실행 차단 정책이 적절히 설정되어 있습니다.\n발견된 설정:\n%s", strings.Join(found, "\n")), nil
	case errs != nil:
		return core.FailedVerdictf(errs, "자동 실행 정책을 모두 읽을 수 없습니다."), nil
	case len(found) == 0:
		return core.Vulnerablef("자동 실행 차단 정책이 전혀 설정되어 있지 않습니다.\n권장값: NoDriveTypeAutoRun=255 또는 DisableAutoplay=1"), nil
	}
	return core.Vulnerablef("자동 실행 차단 정책이 존재하나 기준에 미달합니다.\n현재 설정:\n%s\n\n권장값: NoDriveTypeAutoRun=255 또는 DisableAutoplay=1",
		strings.Join(found, "\n")), nil
}

// PC-19
func evalRemoteAccess(_ context.Context, env *Env) (core.Verdict, error) {
	assist, assistOK, err := env.Registry.ReadDWORD(readers.LocalMachine, remoteAssistPath, "fAllowToGetHelp")
	if err != nil {
		return core.FailedVerdictf(err, "원격 지원 설정을 읽을 수 없습니다."), nil
	}
	deny, denyOK, err := env.Registry.ReadDWORD(readers.LocalMachine, terminalServerPath, "fDenyTSConnections")
	if err != nil {
		return core.FailedVerdictf(err, "원격 데스크톱 설정을 읽을 수 없습니다."), nil
	}

	anyEnabled := false
	var lines []string
	switch {
	case !assistOK:
		lines = append(lines, "- 원격 지원 설정을 찾을 수 없습니다. (fAllowToGetHelp: 미설정)")
	case assist == 1:
		anyEnabled = true
		lines = append(lines, "- 원격 지원이 활성화되어 있습니다. (fAllowToGetHelp=1)")
	default:
		lines = append(lines, fmt.Sprintf("- 원격 지원이 비활성화되어 있습니다. (fAllowToGetHelp=%d)", assist))
	}
	switch {
	case !denyOK:
		lines = append(lines, "- 원격 데스크톱 설정을 찾을 수 없습니다. (fDenyTSConnections: 미설정)")
	case deny == 0:
		anyEnabled = true
		lines = append(lines, "- 원격 데스크톱이 활성화되어 있습니다. (fDenyTSConnections=0)")
	default:
		lines = append(lines, fmt.Sprintf("- 원격 데스크톱이 비활성화되어 있습니다. (fDenyTSConnections=%d)", deny))
	}

	if anyEnabled {
		return core.Vulnerablef("원격 지원 또는 원격 데스크톱이 활성화되어 있습니다.\n%s", strings.Join(lines, "\n")), nil
	}
	return core.Goodf("원격 지원 및 원격 데스크톱이 모두 비활성화되어 있습니다.\n%s", strings.Join(lines, "\n")), nil
}
