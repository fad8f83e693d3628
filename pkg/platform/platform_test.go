package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

func TestForSelectsAdapterByPlatform(t *testing.T) {
	_, isWindows := For(types.PlatformWindows).(Windows)
	assert.True(t, isWindows)

	_, isUnix := For(types.PlatformLinux).(Unix)
	assert.True(t, isUnix)

	_, isUnix = For(types.PlatformMac).(Unix)
	assert.True(t, isUnix)
}

func TestUnixLaunchBackgroundNeverUsesNohup(t *testing.T) {
	cmd := Unix{}.LaunchBackground("/opt/0x4n6nerd/uac -p full .", "/opt/0x4n6nerd/run.log", "/opt/0x4n6nerd")
	assert.NotContains(t, cmd, "nohup")
	assert.Contains(t, cmd, "/dev/null")
	assert.Contains(t, cmd, "pid")
	assert.Contains(t, cmd, "exitcode")
}

func TestWindowsLaunchBackgroundUsesStartProcess(t *testing.T) {
	cmd := Windows{}.LaunchBackground(`C:\0x4n6nerd\kape.exe --target !BasicCollection`, `C:\0x4n6nerd\run.log`, `C:\0x4n6nerd`)
	assert.Contains(t, cmd, "Start-Process")
	assert.NotContains(t, cmd, "nohup")
}

func TestShQuoteEscapesEmbeddedQuote(t *testing.T) {
	quoted := shQuote("it's a path")
	assert.True(t, strings.HasPrefix(quoted, "'"))
	assert.Contains(t, quoted, `'\''`)
}

func TestMkdirPIsIdempotentForm(t *testing.T) {
	assert.Equal(t, "mkdir -p '/opt/0x4n6nerd'", Unix{}.MkdirP("/opt/0x4n6nerd"))
	assert.Contains(t, Windows{}.MkdirP(`C:\0x4n6nerd`), "-Force")
}

func TestSentinelFileNaming(t *testing.T) {
	assert.Equal(t, "/opt/0x4n6nerd/exitcode", Unix{}.ExitCodeFile("/opt/0x4n6nerd"))
	assert.Equal(t, "/opt/0x4n6nerd/pid", Unix{}.PIDFile("/opt/0x4n6nerd"))
	assert.Equal(t, `C:\0x4n6nerd\pid.txt`, Windows{}.PIDFile(`C:\0x4n6nerd`))
}

func TestListGlobIncludesPattern(t *testing.T) {
	assert.Contains(t, Unix{}.ListGlob("/opt/0x4n6nerd", "*.tar.gz"), "*.tar.gz")
	assert.Contains(t, Windows{}.ListGlob(`C:\0x4n6nerd`, "*.vhdx"), "*.vhdx")
}
