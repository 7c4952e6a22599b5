package secpol

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"monori/internal/core"
	"monori/internal/readers"
	"monori/internal/readers/fake"
)

const tempDir = "/tmp"

const sampleExport = "[Unicode]\r\n" +
	"Unicode=yes\r\n" +
	"[System Access]\r\n" +
	"MinimumPasswordAge = 0\r\n" +
	"MaximumPasswordAge = 42\r\n" +
	"MinimumPasswordLength = 8\r\n" +
	"PasswordComplexity = 1\r\n" +
	"NewAdministratorName = \"Administrator\"\r\n" +
	"[Registry Values]\r\n" +
	"MACHINE\\Software\\Microsoft\\Windows NT\\CurrentVersion\\Setup\\RecoveryConsole\\SecurityLevel=4,0\r\n" +
	"MACHINE\\System\\CurrentControlSet\\Control\\Lsa\\LimitBlankPasswordUse=4,1\r\n" +
	"[Privilege Rights]\r\n" +
	"SeNetworkLogonRight = *S-1-1-0,*S-1-5-32-544\r\n" +
	"[Version]\r\n" +
	"signature=\"$CHICAGO$\"\r\n" +
	"Revision=1\r\n"

func utf16(t *testing.T, s string) []byte {
	t.Helper()
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

// exporter makes secedit write content to the /cfg path it is given.
func exporter(fs afero.Fs, content []byte, code int) fake.Handler {
	return func(_ context.Context, args []string) (readers.Output, error) {
		if code == 0 {
			if err := afero.WriteFile(fs, args[2], content, 0o600); err != nil {
				return readers.Output{}, err
			}
		}
		return readers.Output{ExitCode: code}, nil
	}
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(tempDir, 0o700))
	return fs
}

func assertNoTempFiles(t *testing.T, fs afero.Fs) {
	t.Helper()
	entries, err := afero.ReadDir(fs, tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "export file left behind")
}

func TestExportParsesUTF16Dump(t *testing.T) {
	fs := newFs(t)
	runner := fake.NewRunner().Handle(Program, exporter(fs, utf16(t, sampleExport), 0))

	p, err := Export(context.Background(), runner, fs, tempDir)
	require.NoError(t, err)

	require.Len(t, runner.Calls, 1)
	assert.Equal(t, []string{"/export", "/cfg"}, runner.Calls[0].Args[:2])
	assert.Regexp(t, `secpol-.*\.cfg$`, runner.Calls[0].Args[2])

	n, ok, err := p.Int("MaximumPasswordAge")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	v, ok := p.Lookup("NewAdministratorName")
	assert.True(t, ok)
	assert.Equal(t, "Administrator", v)

	assertNoTempFiles(t, fs)
}

func TestExportNonZeroExitNamesPrivilege(t *testing.T) {
	fs := newFs(t)
	runner := fake.NewRunner().Handle(Program, exporter(fs, nil, 1))

	_, err := Export(context.Background(), runner, fs, tempDir)
	require.Error(t, err)
	assert.Equal(t, core.ToolFailure, core.ClassOf(err))
	assert.True(t, errors.Is(err, ErrNotElevated))
	assert.Contains(t, err.Error(), "administrator")
	assertNoTempFiles(t, fs)
}

func TestExportLaunchFailureRemovesTempFile(t *testing.T) {
	fs := newFs(t)
	_, err := Export(context.Background(), fake.NewRunner(), fs, tempDir)
	require.Error(t, err)
	assert.Equal(t, core.ToolFailure, core.ClassOf(err))
	assertNoTempFiles(t, fs)
}

func TestIntRejectsNonNumeric(t *testing.T) {
	p, err := Parse([]byte("[System Access]\nMaximumPasswordAge = soon\n"))
	require.NoError(t, err)

	_, ok, err := p.Int("MaximumPasswordAge")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, core.Parse, core.ClassOf(err))

	_, ok, err = p.Int("MinimumPasswordLength")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistryValueReturnsDataPart(t *testing.T) {
	p, err := Parse([]byte(sampleExport))
	require.NoError(t, err)

	v, ok := p.RegistryValue(`MACHINE\System\CurrentControlSet\Control\Lsa\LimitBlankPasswordUse`)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = p.RegistryValue(`MACHINE\Nope`)
	assert.False(t, ok)
}

func TestRecoveryConsoleSecurityLevel(t *testing.T) {
	fromRegistry, err := Parse([]byte(sampleExport))
	require.NoError(t, err)
	n, ok, err := fromRegistry.RecoveryConsoleSecurityLevel()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	named, err := Parse([]byte("[System Access]\nRecoveryConsoleSecurityLevel = 1\n"))
	require.NoError(t, err)
	n, ok, err = named.RecoveryConsoleSecurityLevel()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	absent, err := Parse([]byte("[System Access]\n"))
	require.NoError(t, err)
	_, ok, err = absent.RecoveryConsoleSecurityLevel()
	assert.NoError(t, err)
	assert.False(t, ok)
}
