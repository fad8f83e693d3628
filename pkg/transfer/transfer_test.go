package transfer

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

type fakeExecutor struct {
	stdout string
	status types.CommandStatus
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, sessionID string, req types.CommandRequest, timeout time.Duration) (types.CommandResult, error) {
	if f.err != nil {
		return types.CommandResult{}, f.err
	}
	status := f.status
	if status == "" {
		status = types.CommandCompleted
	}
	return types.CommandResult{Status: status, Stdout: f.stdout}, nil
}

type fakeFileFacade struct {
	files []types.RemoteArtifact
	blob  string
}

func (f *fakeFileFacade) ListFiles(ctx context.Context, sessionID string) ([]types.RemoteArtifact, error) {
	return f.files, nil
}

func (f *fakeFileFacade) FetchFile(ctx context.Context, sessionID, sha256 string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.blob)), nil
}

func TestRemoteStatParsesUnixOutput(t *testing.T) {
	exec := &fakeExecutor{stdout: "1048576 1700000000"}
	mgr := New(exec, &fakeFileFacade{})

	artifact, ok, err := mgr.RemoteStat(context.Background(), "sess-1", types.PlatformLinux, "/tmp/out.tar.gz", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1048576), artifact.SizeBytes)
}

func TestRemoteStatParsesWindowsOutput(t *testing.T) {
	exec := &fakeExecutor{stdout: `{"Length":2048,"LastWriteTimeUtc":"2024-01-01T00:00:00Z"}`}
	mgr := New(exec, &fakeFileFacade{})

	artifact, ok, err := mgr.RemoteStat(context.Background(), "sess-1", types.PlatformWindows, `C:\out.vhdx`, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2048), artifact.SizeBytes)
}

func TestRemoteStatMissingFileReturnsNotOK(t *testing.T) {
	exec := &fakeExecutor{stdout: ""}
	mgr := New(exec, &fakeFileFacade{})

	_, ok, err := mgr.RemoteStat(context.Background(), "sess-1", types.PlatformLinux, "/tmp/missing", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoteSHA256Unix(t *testing.T) {
	exec := &fakeExecutor{stdout: "deadbeef"}
	mgr := New(exec, &fakeFileFacade{})

	hash, ok, err := mgr.RemoteSHA256(context.Background(), "sess-1", types.PlatformLinux, "/tmp/out.tar.gz", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "deadbeef", hash)
}

func TestRemoteSHA256UnsupportedWhenEmpty(t *testing.T) {
	exec := &fakeExecutor{stdout: ""}
	mgr := New(exec, &fakeFileFacade{})

	_, ok, err := mgr.RemoteSHA256(context.Background(), "sess-1", types.PlatformLinux, "/tmp/out.tar.gz", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListAndDownloadSessionFile(t *testing.T) {
	facade := &fakeFileFacade{
		files: []types.RemoteArtifact{{Path: "out.7z", SizeBytes: 10}},
		blob:  "archive-bytes",
	}
	mgr := New(&fakeExecutor{}, facade)

	files, err := mgr.ListSessionFiles(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, files, 1)

	rc, err := mgr.DownloadSessionFile(context.Background(), "sess-1", "deadbeef")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(data))
}
