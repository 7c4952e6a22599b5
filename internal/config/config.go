// Package config holds the audit settings and the policy baseline the
// checks compare against.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. MONORI_LOG_LEVEL.
const EnvPrefix = "MONORI"

// Progress modes.
const (
	ProgressNone  = "none"
	ProgressLog   = "log"
	ProgressJSONL = "jsonl"
)

var (
	ErrInvalidLogLevel    = errors.New("log-level must be one of debug, info, warn, error")
	ErrInvalidProgress    = errors.New("progress must be one of none, log, jsonl")
	ErrNegativeDuration   = errors.New("settle-delay and tool-timeout must not be negative")
	ErrInvalidPolicyValue = errors.New("policy thresholds must be positive")
)

// Policy is the baseline each check compares observed state against.
type Policy struct {
	MaxPasswordAgeDays     int      `json:"max_password_age_days" yaml:"max_password_age_days" mapstructure:"max-password-age-days"`
	MinPasswordLength      int      `json:"min_password_length" yaml:"min_password_length" mapstructure:"min-password-length"`
	ScreenSaverTimeoutSecs int      `json:"screensaver_timeout_seconds" yaml:"screensaver_timeout_seconds" mapstructure:"screensaver-timeout-seconds"`
	ServiceBlocklist       []string `json:"service_blocklist" yaml:"service_blocklist" mapstructure:"service-blocklist"`
	MaxBootEntries         int      `json:"max_boot_entries" yaml:"max_boot_entries" mapstructure:"max-boot-entries"`
	PatchWindowDays        int      `json:"patch_window_days" yaml:"patch_window_days" mapstructure:"patch-window-days"`
}

// Config holds the settings of one audit run.
type Config struct {
	LogLevel          string        `json:"log_level" yaml:"log_level" mapstructure:"log-level"`
	Output            string        `json:"output" yaml:"output" mapstructure:"output"`
	Progress          string        `json:"progress" yaml:"progress" mapstructure:"progress"`
	SettleDelay       time.Duration `json:"settle_delay" yaml:"settle_delay" mapstructure:"settle-delay"`
	ToolTimeout       time.Duration `json:"tool_timeout" yaml:"tool_timeout" mapstructure:"tool-timeout"`
	MetricsFile       string        `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics-file"`
	SyntheticFailures bool          `json:"synthetic_failures" yaml:"synthetic_failures" mapstructure:"synthetic-failures"`
	// Checks restricts the run to these codes; empty runs the full catalog.
	Checks []string `json:"checks,omitempty" yaml:"checks,omitempty" mapstructure:"checks"`
	Policy Policy   `json:"policy" yaml:"policy" mapstructure:"policy"`
}

// DefaultServiceBlocklist lists services that should be neither running nor
// set to start automatically.
var DefaultServiceBlocklist = []string{
	"Alerter", "wuauserv", "ClipSrv", "Browser",
	"CryptSvc", "Dhcp", "TrkWks", "TrkSvr",
	"Dnscache", "ERSvc", "HidServ", "ImapiService",
	"Irmon", "Messenger", "mnmsrvc", "WmdmPmSp",
	"Spooler", "RemoteRegistry", "Simptcp", "SSDPSRV",
	"WebClient",
}

// DefaultPolicy returns the baseline thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxPasswordAgeDays:     90,
		MinPasswordLength:      8,
		ScreenSaverTimeoutSecs: 600,
		ServiceBlocklist:       append([]string(nil), DefaultServiceBlocklist...),
		MaxBootEntries:         1,
		PatchWindowDays:        90,
	}
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LogLevel:          "info",
		Output:            "monori-report.json",
		Progress:          ProgressLog,
		SettleDelay:       500 * time.Millisecond,
		ToolTimeout:       30 * time.Second,
		SyntheticFailures: true,
		Policy:            DefaultPolicy(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !lo.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		return ErrInvalidLogLevel
	}
	if !lo.Contains([]string{ProgressNone, ProgressLog, ProgressJSONL}, c.Progress) {
		return ErrInvalidProgress
	}
	if c.SettleDelay < 0 || c.ToolTimeout < 0 {
		return ErrNegativeDuration
	}
	return c.Policy.Validate()
}

// Validate checks that every threshold is positive.
func (p Policy) Validate() error {
	thresholds := []struct {
		name  string
		value int
	}{
		{"max-password-age-days", p.MaxPasswordAgeDays},
		{"min-password-length", p.MinPasswordLength},
		{"screensaver-timeout-seconds", p.ScreenSaverTimeoutSecs},
		{"max-boot-entries", p.MaxBootEntries},
		{"patch-window-days", p.PatchWindowDays},
	}
	for _, t := range thresholds {
		if t.value <= 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidPolicyValue, t.name, t.value)
		}
	}
	return nil
}

// SetDefaults registers every key of Default on v so that environment
// overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("output", d.Output)
	v.SetDefault("progress", d.Progress)
	v.SetDefault("settle-delay", d.SettleDelay)
	v.SetDefault("tool-timeout", d.ToolTimeout)
	v.SetDefault("metrics-file", d.MetricsFile)
	v.SetDefault("synthetic-failures", d.SyntheticFailures)
	v.SetDefault("checks", d.Checks)
	v.SetDefault("policy.max-password-age-days", d.Policy.MaxPasswordAgeDays)
	v.SetDefault("policy.min-password-length", d.Policy.MinPasswordLength)
	v.SetDefault("policy.screensaver-timeout-seconds", d.Policy.ScreenSaverTimeoutSecs)
	v.SetDefault("policy.service-blocklist", d.Policy.ServiceBlocklist)
	v.SetDefault("policy.max-boot-entries", d.Policy.MaxBootEntries)
	v.SetDefault("policy.patch-window-days", d.Policy.PatchWindowDays)
}

// Load reads configPath (optional, YAML) from fs, MONORI_* environment
// variables and whatever flags were bound to v, in increasing precedence,
// and validates the result.
func Load(v *viper.Viper, fs afero.Fs, configPath string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetFs(fs)
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	// Every key has a registered default, so decoding starts from zero
	// values; decoding over Default would merge list entries.
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Checks) > 0 {
		cfg.Checks = lo.Compact(lo.Map(cfg.Checks, func(code string, _ int) string {
			return strings.ToUpper(strings.TrimSpace(code))
		}))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
