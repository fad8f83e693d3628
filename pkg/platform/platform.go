// Package platform turns abstract host intents into concrete,
// platform-specific command strings (spec §4.7). Adapters are pure
// functions: no network, no filesystem, no session. The DEPLOY, LAUNCH,
// RUN_MONITOR, FILE_WAIT and CLEAN phases of pkg/collector call into
// an Adapter selected by types.Platform to build the exact string
// shipped through the RTR façade.
package platform

import (
	"fmt"
	"strings"

	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// Adapter synthesizes the command strings a collection job needs on
// one platform family.
type Adapter interface {
	MkdirP(path string) string
	Exists(path string) string
	Stat(path string) string
	RmRf(path string) string
	Tail(path string, bytes int) string
	LaunchBackground(command, logfile, sentinelDir string) string
	ExpandArchive(archive, dest string) string
	// ListGlob lists, one per line, the names of files directly under
	// dir matching glob. Used by FILE_WAIT to enumerate candidate
	// output files before a specific path can be handed to Stat.
	ListGlob(dir, glob string) string
	// ExitCodeFile and PIDFile name the sentinel files
	// LaunchBackground writes under sentinelDir, so RUN_MONITOR can
	// build the matching Stat/Exists commands for them.
	ExitCodeFile(sentinelDir string) string
	PIDFile(sentinelDir string) string
}

// For selects the adapter for a host platform.
func For(p types.Platform) Adapter {
	if p.IsUnix() {
		return Unix{}
	}
	return Windows{}
}

// Windows synthesizes PowerShell command strings.
type Windows struct{}

func (Windows) MkdirP(path string) string {
	return fmt.Sprintf(`New-Item -ItemType Directory -Force -Path %q | Out-Null`, path)
}

func (Windows) Exists(path string) string {
	return fmt.Sprintf(`Test-Path -Path %q`, path)
}

func (Windows) Stat(path string) string {
	return fmt.Sprintf(
		`Get-Item -Path %q -ErrorAction SilentlyContinue | Select-Object Length,LastWriteTimeUtc | ConvertTo-Json -Compress`,
		path,
	)
}

func (Windows) RmRf(path string) string {
	return fmt.Sprintf(`Remove-Item -Path %q -Recurse -Force -ErrorAction SilentlyContinue`, path)
}

func (Windows) Tail(path string, bytes int) string {
	return fmt.Sprintf(
		`Get-Content -Path %q -Tail 200 -ErrorAction SilentlyContinue | Select-Object -Last %d`,
		path, bytes,
	)
}

// LaunchBackground on Windows uses Start-Process with no wait, so the
// RTR command returns promptly while KAPE runs for potentially hours.
func (Windows) LaunchBackground(command, logfile, sentinelDir string) string {
	return fmt.Sprintf(
		`Start-Process -FilePath "cmd.exe" -ArgumentList '/c %s > %q 2>&1' -WindowStyle Hidden -PassThru | `+
			`ForEach-Object { $_.Id | Out-File -FilePath %q -Encoding ascii }`,
		command, logfile, sentinelDir+`\pid.txt`,
	)
}

func (Windows) ExpandArchive(archive, dest string) string {
	return fmt.Sprintf(`Expand-Archive -Path %q -DestinationPath %q -Force`, archive, dest)
}

func (Windows) ListGlob(dir, glob string) string {
	return fmt.Sprintf(`Get-ChildItem -Path %q -Filter %q -File -ErrorAction SilentlyContinue | Select-Object -ExpandProperty Name`, dir, glob)
}

func (Windows) ExitCodeFile(sentinelDir string) string { return sentinelDir + `\exitcode.txt` }
func (Windows) PIDFile(sentinelDir string) string      { return sentinelDir + `\pid.txt` }

// Unix synthesizes POSIX shell command strings.
type Unix struct{}

func (Unix) MkdirP(path string) string {
	return fmt.Sprintf(`mkdir -p %s`, shQuote(path))
}

func (Unix) Exists(path string) string {
	return fmt.Sprintf(`test -e %s && echo exists || echo missing`, shQuote(path))
}

func (Unix) Stat(path string) string {
	return fmt.Sprintf(`stat -c '%%s %%Y' %s 2>/dev/null`, shQuote(path))
}

func (Unix) RmRf(path string) string {
	return fmt.Sprintf(`rm -rf %s`, shQuote(path))
}

func (Unix) Tail(path string, bytes int) string {
	return fmt.Sprintf(`tail -c %d %s 2>/dev/null`, bytes, shQuote(path))
}

// LaunchBackground never uses nohup: the RTR channel's constrained TTY
// makes nohup fail to detach reliably. Instead stdin is redirected from
// /dev/null, stdout/stderr to a log file, and the backgrounded shell
// records its PID and eventual exit code to sentinel files so
// RUN_MONITOR can observe completion without holding the session open.
func (Unix) LaunchBackground(command, logfile, sentinelDir string) string {
	pidFile := sentinelDir + "/pid"
	exitFile := sentinelDir + "/exitcode"
	return fmt.Sprintf(
		`(%s) < /dev/null > %s 2>&1 & echo $! > %s; wait $!; echo $? > %s &`,
		command, shQuote(logfile), shQuote(pidFile), shQuote(exitFile),
	)
}

func (Unix) ExpandArchive(archive, dest string) string {
	return fmt.Sprintf(`unzip -o %s -d %s`, shQuote(archive), shQuote(dest))
}

func (Unix) ListGlob(dir, glob string) string {
	return fmt.Sprintf(`cd %s 2>/dev/null && ls -1 %s 2>/dev/null`, shQuote(dir), glob)
}

func (Unix) ExitCodeFile(sentinelDir string) string { return sentinelDir + "/exitcode" }
func (Unix) PIDFile(sentinelDir string) string      { return sentinelDir + "/pid" }

// shQuote wraps a path in single quotes, escaping any embedded quote.
// Host-provided workspace paths are configuration values, not
// untrusted input, but quoting keeps the generated command well-formed
// regardless of embedded spaces.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
