package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cuemby/fnerd-orchestrator/pkg/rtr"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// fetch stages the stable artifact into RTR's file library, retrieves
// its hash, streams it to a local temp file, and checks the local size
// against the size observed during STABILIZE (spec §4.3 FETCH). Up to
// two retries are made on a transient error.
func (c *Collector) fetch(ctx context.Context, sessionID string, job *types.CollectionJob, artifact types.RemoteArtifact) (localPath string, size int64, sha string, err error) {
	job.Phase = types.PhaseFetch
	const maxAttempts = 3 // initial attempt plus up to 2 retries

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		localPath, size, sha, err = c.fetchOnce(ctx, sessionID, job, artifact)
		if err == nil {
			return localPath, size, sha, nil
		}
		if !rtr.IsTransient(err) || attempt == maxAttempts {
			break
		}
		if sleepErr := c.sleepOrCancel(ctx, c.cfg.Timeouts.Stability); sleepErr != nil {
			return "", 0, "", phaseErr(types.PhaseFetch, types.KindCancelled, "cancelled during fetch retry", sleepErr)
		}
	}

	// Preserve whatever kind fetchOnce already classified the error as
	// (e.g. integrity on a size mismatch); only a raw, unclassified error
	// gets wrapped here.
	var pe *PhaseError
	if errors.As(err, &pe) {
		return "", 0, "", err
	}
	return "", 0, "", phaseErr(types.PhaseFetch, types.KindTransient, "fetch_failed", err)
}

func (c *Collector) fetchOnce(ctx context.Context, sessionID string, job *types.CollectionJob, artifact types.RemoteArtifact) (string, int64, string, error) {
	if _, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand: "get", FullCommandString: artifact.Path, Privilege: types.PrivilegeAdmin,
	}, c.cfg.Timeouts.Fetch); err != nil {
		return "", 0, "", err
	}

	sha, ok, err := c.transfer.RemoteSHA256(ctx, sessionID, job.Host.Platform, artifact.Path, c.cfg.Timeouts.Command)
	if err != nil {
		return "", 0, "", err
	}
	if !ok {
		return "", 0, "", phaseErr(types.PhaseFetch, types.KindIntegrity, "host did not report a hash for staged file", nil)
	}

	rc, err := c.transfer.DownloadSessionFile(ctx, sessionID, sha)
	if err != nil {
		return "", 0, "", err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "collection-*.bin")
	if err != nil {
		return "", 0, "", phaseErr(types.PhaseFetch, types.KindInternal, "failed to create local temp file", err)
	}
	defer tmp.Close()

	written, err := io.Copy(tmp, rc)
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, "", err
	}
	if written != artifact.SizeBytes {
		os.Remove(tmp.Name())
		return "", 0, "", phaseErr(types.PhaseFetch, types.KindIntegrity,
			fmt.Sprintf("local size %d does not match observed remote size %d", written, artifact.SizeBytes), nil)
	}

	return tmp.Name(), written, sha, nil
}
