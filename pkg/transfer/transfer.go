package transfer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/fnerd-orchestrator/pkg/platform"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// Executor is the subset of the session manager's API this package
// depends on.
type Executor interface {
	Execute(ctx context.Context, sessionID string, req types.CommandRequest, timeout time.Duration) (types.CommandResult, error)
}

// FileFacade is the subset of the rtr façade covering file listing and
// retrieval.
type FileFacade interface {
	ListFiles(ctx context.Context, sessionID string) ([]types.RemoteArtifact, error)
	FetchFile(ctx context.Context, sessionID, sha256 string) (io.ReadCloser, error)
}

// Manager implements the file/transfer manager (spec §4.5).
type Manager struct {
	exec  Executor
	files FileFacade
}

func New(exec Executor, files FileFacade) *Manager {
	return &Manager{exec: exec, files: files}
}

// RemoteStat resolves size/mtime/existence of a remote path.
func (m *Manager) RemoteStat(ctx context.Context, sessionID string, plat types.Platform, path string, timeout time.Duration) (types.RemoteArtifact, bool, error) {
	adapter := platform.For(plat)
	result, err := m.exec.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand:       "runscript",
		FullCommandString: adapter.Stat(path),
		Privilege:         types.PrivilegeActiveResponder,
	}, timeout)
	if err != nil {
		return types.RemoteArtifact{}, false, fmt.Errorf("transfer: remote_stat: %w", err)
	}
	if result.Status != types.CommandCompleted || strings.TrimSpace(result.Stdout) == "" {
		return types.RemoteArtifact{}, false, nil
	}

	size, mtime, ok := parseStat(plat, result.Stdout)
	if !ok {
		return types.RemoteArtifact{}, false, fmt.Errorf("transfer: remote_stat: unparseable output %q", result.Stdout)
	}
	return types.RemoteArtifact{Path: path, SizeBytes: size, LastModified: mtime}, true, nil
}

// parseStat understands both adapters' stat output: Windows emits
// `{"Length":N,"LastWriteTimeUtc":"..."}` JSON, Unix emits `size epoch`.
func parseStat(plat types.Platform, out string) (int64, time.Time, bool) {
	out = strings.TrimSpace(out)
	if plat.IsUnix() {
		fields := strings.Fields(out)
		if len(fields) != 2 {
			return 0, time.Time{}, false
		}
		size, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, time.Time{}, false
		}
		epoch, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, time.Time{}, false
		}
		return size, time.Unix(epoch, 0).UTC(), true
	}
	// Windows: a tiny hand-rolled parse to avoid pulling encoding/json
	// into a single-line, already-JSON-shaped PowerShell reply. The
	// timestamp is either RFC 3339 or PowerShell's "\/Date(ms)\/" form.
	var length, ms int64
	var stamp string
	if _, err := fmt.Sscanf(strings.ReplaceAll(out, `\/`, "/"), `{"Length":%d,"LastWriteTimeUtc":%q}`, &length, &stamp); err != nil {
		return 0, time.Time{}, false
	}
	if _, err := fmt.Sscanf(stamp, "/Date(%d)/", &ms); err == nil {
		return length, time.UnixMilli(ms).UTC(), true
	}
	mtime, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return 0, time.Time{}, false
	}
	return length, mtime.UTC(), true
}

// ListSessionFiles lists files RTR has staged for the session.
func (m *Manager) ListSessionFiles(ctx context.Context, sessionID string) ([]types.RemoteArtifact, error) {
	return m.files.ListFiles(ctx, sessionID)
}

// DownloadSessionFile streams a staged file. The outer HTTP stream may
// be retried by the caller on a TransientError; the inner stream
// always restarts from zero (spec §4.5: "resumable retry on the outer
// stream only").
func (m *Manager) DownloadSessionFile(ctx context.Context, sessionID, sha256 string) (io.ReadCloser, error) {
	rc, err := m.files.FetchFile(ctx, sessionID, sha256)
	if err != nil {
		return nil, fmt.Errorf("transfer: download_session_file: %w", err)
	}
	return rc, nil
}

// RemoteSHA256 asks the host to hash path itself, avoiding a full
// download when the tool didn't already emit a hash. ok is false when
// the hashing command printed nothing (for example, a missing file).
func (m *Manager) RemoteSHA256(ctx context.Context, sessionID string, plat types.Platform, path string, timeout time.Duration) (hash string, ok bool, err error) {
	var cmd string
	if plat.IsUnix() {
		cmd = fmt.Sprintf("sha256sum %s 2>/dev/null | cut -d ' ' -f1", shQuote(path))
	} else {
		cmd = fmt.Sprintf(`(Get-FileHash -Path %q -Algorithm SHA256).Hash`, path)
	}

	result, err := m.exec.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand:       "runscript",
		FullCommandString: cmd,
		Privilege:         types.PrivilegeActiveResponder,
	}, timeout)
	if err != nil {
		return "", false, fmt.Errorf("transfer: remote_sha256: %w", err)
	}
	hash = strings.ToLower(strings.TrimSpace(result.Stdout))
	if hash == "" {
		return "", false, nil
	}
	return hash, true, nil
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
