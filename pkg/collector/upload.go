package collector

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/cuemby/fnerd-orchestrator/pkg/metrics"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// upload streams the fetched file to the object store under a
// deterministic key (spec §4.3 UPLOAD). artifactPath is the remote
// path of the retrieved file, used only to derive the key's suffix.
func (c *Collector) upload(ctx context.Context, job *types.CollectionJob, artifactPath, localPath string, size int64) (string, error) {
	job.Phase = types.PhaseUpload

	f, err := os.Open(localPath)
	if err != nil {
		return "", phaseErr(types.PhaseUpload, types.KindInternal, "failed to reopen fetched file", err)
	}
	defer f.Close()

	key := objectKey(job, artifactPath)
	if _, err := c.store.Upload(ctx, key, f, size); err != nil {
		// The upload call's own error is not authoritative (spec §4.3
		// VERIFY): a caller still proceeds to VERIFY and trusts HEAD.
		return key, phaseErr(types.PhaseUpload, types.KindTransient, "upload_failed", err)
	}
	return key, nil
}

// verify issues the authoritative HEAD check: a job is only ever
// reported Success when the object store confirms the uploaded size,
// regardless of what Upload itself returned (spec §4.3 VERIFY, the
// no-false-success regression guard).
func (c *Collector) verify(ctx context.Context, key string, expectedSize int64) (int64, error) {
	result, err := c.store.Head(ctx, key)
	if err != nil {
		return 0, phaseErr(types.PhaseVerify, types.KindIntegrity, "upload_unverified", err)
	}
	if result.UploadedSize != expectedSize {
		metrics.VerifyMismatchTotal.Inc()
		return 0, phaseErr(types.PhaseVerify, types.KindIntegrity,
			fmt.Sprintf("upload_unverified: object size %d does not match fetched size %d", result.UploadedSize, expectedSize), nil)
	}
	return result.UploadedSize, nil
}

// objectKey builds the deterministic upload destination for a job:
// {tool}/{hostname}/{timestamp}_{hostname}-triage{ext} (spec §4.3
// UPLOAD, S1: "kape/WIN-1/2024-05-01T1200_WIN-1-triage.7z"). ext is
// carried over from the fetched artifact's own name so each tool's
// real archive format (.7z, .tar.gz, ...) survives into the key.
func objectKey(job *types.CollectionJob, artifactPath string) string {
	ts := job.StartedAt.Format("2006-01-02T1504")
	return fmt.Sprintf("%s/%s/%s_%s-triage%s", job.Tool, job.Host.Hostname, ts, job.Host.Hostname, artifactExt(artifactPath))
}

// artifactExt returns the full dotted extension of a remote artifact
// path, keeping multi-part suffixes like ".tar.gz" intact.
func artifactExt(artifactPath string) string {
	base := path.Base(artifactPath)
	if i := strings.Index(base, "."); i >= 0 {
		return base[i:]
	}
	return ""
}
