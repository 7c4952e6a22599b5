package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"monori/internal/core"
	"monori/internal/readers"
	"monori/internal/secpol"
)

const winlogonPath = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\Winlogon`

// PC-01
func evalPasswordAge(ctx context.Context, env *Env) (core.Verdict, error) {
	pol, err := env.exportPolicy(ctx)
	if err != nil {
		return exportFailed(err), nil
	}
	days, ok, err := pol.Int("MaximumPasswordAge")
	if err != nil {
		return core.FailedVerdictf(err, "최대 암호 사용 기간 값을 해석할 수 없습니다."), nil
	}
	if !ok {
		return core.FailedVerdictf(notObserved(secpol.Program+" MaximumPasswordAge"),
			"최대 암호 사용 기간 설정을 확인할 수 없습니다."), nil
	}

	limit := env.Policy.MaxPasswordAgeDays
	switch {
	case days >= 1 && days <= limit:
		return core.Goodf("최대 암호 사용 기간이 %d 일로 설정되어 있습니다. (기준: %d일 이하)", days, limit), nil
	case days <= 0:
		return core.Vulnerablef("최대 암호 사용 기간이 설정되지 않았습니다 (무제한, MaximumPasswordAge=%d).", days), nil
	}
	return core.Vulnerablef("%d 일, 최대 암호 사용 기간이 %d일을 초과합니다.", days, limit), nil
}

// PC-02
func evalPasswordPolicy(ctx context.Context, env *Env) (core.Verdict, error) {
	pol, err := env.exportPolicy(ctx)
	if err != nil {
		return exportFailed(err), nil
	}
	length, lengthOK, err := pol.Int("MinimumPasswordLength")
	if err != nil {
		return core.FailedVerdictf(err, "패스워드 최소 길이 값을 해석할 수 없습니다."), nil
	}
	complexity, complexityOK, err := pol.Int("PasswordComplexity")
	if err != nil {
		return core.FailedVerdictf(err, "패스워드 복잡성 값을 해석할 수 없습니다."), nil
	}
	if !lengthOK || !complexityOK {
		var missing []string
		if !lengthOK {
			missing = append(missing, "MinimumPasswordLength")
		}
		if !complexityOK {
			missing = append(missing, "PasswordComplexity")
		}
		return core.FailedVerdictf(notObserved(secpol.Program+" "+strings.Join(missing, ", ")),
			"패스워드 정책 설정을 확인할 수 없습니다."), nil
	}

	minLength := env.Policy.MinPasswordLength
	lengthGood := length >= minLength
	complexityGood := complexity == 1

	complexityText := "비활성화됨"
	if complexityGood {
		complexityText = "활성화됨"
	}
	detail := fmt.Sprintf("패스워드 최소 길이: %d 자 (기준: %d 자 이상) - %s, 패스워드 복잡성 설정: %s (PasswordComplexity=%d) - %s",
		length, minLength, verdictWord(lengthGood), complexityText, complexity, verdictWord(complexityGood))
	if lengthGood && complexityGood {
		return core.Verdict{Status: core.StatusGood, Detail: detail}, nil
	}
	return core.Verdict{Status: core.StatusVulnerable, Detail: detail}, nil
}

// PC-15
func evalRecoveryConsole(ctx context.Context, env *Env) (core.Verdict, error) {
	pol, err := env.exportPolicy(ctx)
	if err != nil {
		return exportFailed(err), nil
	}
	level, levelOK, err := pol.RecoveryConsoleSecurityLevel()
	if err != nil {
		return core.FailedVerdictf(err, "복구 콘솔 보안 수준 값을 해석할 수 없습니다."), nil
	}
	autoLogon, autoLogonOK, err := env.Registry.ReadString(readers.LocalMachine, winlogonPath, "AutoAdminLogon")
	if err != nil {
		return core.FailedVerdictf(err, "자동 로그온 설정을 읽을 수 없습니다."), nil
	}

	enabled := (levelOK && level == 1) || (autoLogonOK && strings.TrimSpace(autoLogon) == "1")
	observed := "RecoveryConsoleSecurityLevel=" + orUnset(strconv.Itoa(level), levelOK) +
		", AutoAdminLogon=" + orUnset(autoLogon, autoLogonOK)
	if enabled {
		return core.Vulnerablef("Windows 복구 콘솔 자동 관리자 로그인이 활성화되어 있습니다. (%s)", observed), nil
	}
	return core.Goodf("Windows 복구 콘솔 자동 관리자 로그인이 비활성화되어 있습니다. (%s)", observed), nil
}

func verdictWord(good bool) string {
	if good {
		return core.StatusGood.String()
	}
	return core.StatusVulnerable.String()
}
