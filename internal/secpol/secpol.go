// Package secpol exports the local security policy with secedit and reads
// the resulting INI-style dump.
package secpol

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"monori/internal/core"
	"monori/internal/readers"
)

const (
	// Program is the policy export tool.
	Program = "secedit"

	registryValuesSection = "Registry Values"
	recoveryConsoleKey    = "RecoveryConsoleSecurityLevel"
	recoveryConsoleValue  = `MACHINE\Software\Microsoft\Windows NT\CurrentVersion\Setup\RecoveryConsole\SecurityLevel`
)

// ErrNotElevated is the explanation attached to a failed export. secedit
// exits non-zero when it cannot read the policy database, which on a
// standard host means the process is not running as administrator.
var ErrNotElevated = errors.New("security policy export requires administrator privilege")

// Policy is a parsed policy export.
type Policy struct {
	file *ini.File
}

// Export runs `secedit /export /cfg <file>` with a temp file created in
// tempDir and parses it. The temp file is removed on every return path.
func Export(ctx context.Context, runner readers.Runner, fs afero.Fs, tempDir string) (*Policy, error) {
	f, err := afero.TempFile(fs, tempDir, "secpol-*.cfg")
	if err != nil {
		return nil, core.NewFailure(core.ToolFailure, Program, fmt.Errorf("create export file: %w", err))
	}
	path := f.Name()
	defer fs.Remove(path)
	if err := f.Close(); err != nil {
		return nil, core.NewFailure(core.ToolFailure, Program, fmt.Errorf("close export file: %w", err))
	}

	out, err := runner.Run(ctx, Program, "/export", "/cfg", path)
	if err != nil {
		return nil, err
	}
	if !out.Success() {
		return nil, core.NewFailure(core.ToolFailure, Program,
			fmt.Errorf("exit code %d: %w", out.ExitCode, ErrNotElevated))
	}

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, core.NewFailure(core.ToolFailure, Program, fmt.Errorf("read export file: %w", err))
	}
	return Parse(raw)
}

// Parse reads an export. UTF-16 with a byte-order mark is what secedit
// writes; BOM-less input is read as UTF-8.
func Parse(raw []byte) (*Policy, error) {
	text := readers.DecodeFile(raw)
	file, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:             true,
		IgnoreContinuation:      true,
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, []byte(text))
	if err != nil {
		return nil, core.NewParseFailure(Program, text, err)
	}
	return &Policy{file: file}, nil
}

// Lookup returns the raw value of name from the first section holding it.
func (p *Policy) Lookup(name string) (string, bool) {
	for _, s := range p.file.Sections() {
		if s.HasKey(name) {
			return strings.TrimSpace(s.Key(name).String()), true
		}
	}
	return "", false
}

// Int returns name as an integer. ok is false when no section holds the
// key; a value that is not a number is a Parse failure.
func (p *Policy) Int(name string) (int, bool, error) {
	v, ok := p.Lookup(name)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, core.NewParseFailure(Program+" "+name, v, err)
	}
	return n, true, nil
}

// RegistryValue returns the data part of a [Registry Values] entry, which
// secedit writes as `<type>,<data>`.
func (p *Policy) RegistryValue(path string) (string, bool) {
	s, err := p.file.GetSection(registryValuesSection)
	if err != nil || !s.HasKey(path) {
		return "", false
	}
	v := s.Key(path).String()
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[i+1:]
	}
	return strings.Trim(strings.TrimSpace(v), `"`), true
}

// RecoveryConsoleSecurityLevel reads the recovery-console automatic
// administrator logon setting, either as a named policy key or as its
// registry-backed form.
func (p *Policy) RecoveryConsoleSecurityLevel() (int, bool, error) {
	if n, ok, err := p.Int(recoveryConsoleKey); ok || err != nil {
		return n, ok, err
	}
	v, ok := p.RegistryValue(recoveryConsoleValue)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, core.NewParseFailure(Program+" "+recoveryConsoleValue, v, err)
	}
	return n, true, nil
}
