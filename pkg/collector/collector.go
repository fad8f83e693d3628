// Package collector implements the collection state machine (spec
// §4.3), the core of the orchestrator: for one host, it drives
// INIT -> PRECHECK -> DEPLOY -> LAUNCH -> RUN_MONITOR -> FILE_WAIT ->
// STABILIZE -> FETCH -> UPLOAD -> VERIFY -> CLEAN -> DONE, or FAIL at
// any point, with CLEAN always attempted once a session has been
// opened.
package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cuemby/fnerd-orchestrator/pkg/config"
	"github.com/cuemby/fnerd-orchestrator/pkg/metrics"
	"github.com/cuemby/fnerd-orchestrator/pkg/objectstore"
	"github.com/cuemby/fnerd-orchestrator/pkg/platform"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// HostResolver discovers and caches host records.
type HostResolver interface {
	DiscoverHost(ctx context.Context, hostname string, forceRefresh bool) (types.Host, error)
}

// TenantUploader stages the tool payload once per tenant.
type TenantUploader interface {
	PutTenantFile(ctx context.Context, cid, filename string, payload io.Reader) error
}

// SessionAPI is the session manager capability collector depends on.
type SessionAPI interface {
	Acquire(ctx context.Context, host types.Host) (*types.Session, error)
	Execute(ctx context.Context, sessionID string, req types.CommandRequest, timeout time.Duration) (types.CommandResult, error)
	Release(ctx context.Context, sessionID string) error
}

// TransferAPI is the file/transfer manager capability collector
// depends on.
type TransferAPI interface {
	RemoteStat(ctx context.Context, sessionID string, plat types.Platform, path string, timeout time.Duration) (types.RemoteArtifact, bool, error)
	DownloadSessionFile(ctx context.Context, sessionID, sha256 string) (io.ReadCloser, error)
	RemoteSHA256(ctx context.Context, sessionID string, plat types.Platform, path string, timeout time.Duration) (string, bool, error)
}

// UploadAPI is the object-store capability collector depends on.
type UploadAPI interface {
	Upload(ctx context.Context, key string, local io.Reader, size int64) (objectstore.Result, error)
	Head(ctx context.Context, key string) (objectstore.Result, error)
}

// PayloadSource opens the local copy of a tool's deployable archive.
// Packaging those archives is out of scope (spec §1 Non-goals:
// "KAPE/UAC binary packaging"); this interface is the seam a caller
// supplies them through.
type PayloadSource interface {
	Open(tool types.Tool) (data io.Reader, size int64, err error)
}

// Collector drives the per-host state machine.
type Collector struct {
	hosts    HostResolver
	tenant   TenantUploader
	sessions SessionAPI
	transfer TransferAPI
	store    UploadAPI
	payloads PayloadSource
	profiles map[types.Tool]Profile
	cfg      config.Config

	now func() time.Time
}

// New builds a Collector. profiles defaults to DefaultProfiles when nil.
func New(hosts HostResolver, tenant TenantUploader, sessions SessionAPI, transfer TransferAPI, store UploadAPI, payloads PayloadSource, profiles map[types.Tool]Profile, cfg config.Config) *Collector {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Collector{
		hosts: hosts, tenant: tenant, sessions: sessions, transfer: transfer,
		store: store, payloads: payloads, profiles: profiles, cfg: cfg,
		now: time.Now,
	}
}

// Run drives job's full lifecycle and returns its terminal Outcome.
// It never panics past this boundary: a recovered panic is reported as
// an internal_error failure (spec §5).
func (c *Collector) Run(ctx context.Context, job types.CollectionJob) (outcome types.Outcome) {
	hostname := job.Host.Hostname
	defer func() {
		if r := recover(); r != nil {
			outcome = types.Outcome{Hostname: hostname, Failure: &types.Failure{
				Kind: types.KindInternal, Phase: job.Phase, Detail: fmt.Sprintf("recovered panic: %v", r),
			}}
		}
	}()

	job.Phase = types.PhaseInit
	job.StartedAt = c.now()
	profile, ok := c.profiles[job.Tool]
	if !ok {
		return c.fail(hostname, phaseErr(types.PhasePrecheck, types.KindInternal, fmt.Sprintf("no profile registered for tool %s", job.Tool), nil))
	}

	host, err := c.precheck(ctx, &job)
	if err != nil {
		return c.fail(hostname, err)
	}
	job.Host = host

	sess, err := c.sessions.Acquire(ctx, host)
	if err != nil {
		return c.fail(hostname, phaseErr(types.PhaseDeploy, types.KindTransient, "session acquire failed", err))
	}
	sessionID := sess.ID

	var finalOutcome types.Outcome
	defer func() {
		c.clean(context.Background(), sessionID, job)
		if finalOutcome.Failure != nil {
			metrics.JobsTotal.WithLabelValues("failure", string(finalOutcome.Failure.Kind)).Inc()
		}
		finalOutcome.Hostname = hostname
		outcome = finalOutcome
	}()

	if err := c.deploy(ctx, sessionID, &job, profile); err != nil {
		finalOutcome = types.Outcome{Failure: toFailure(types.PhaseDeploy, err)}
		return
	}
	if err := c.launch(ctx, sessionID, &job, profile); err != nil {
		finalOutcome = types.Outcome{Failure: toFailure(types.PhaseLaunch, err)}
		return
	}
	if err := c.runMonitor(ctx, sessionID, &job, profile); err != nil {
		finalOutcome = types.Outcome{Failure: toFailure(types.PhaseRunMonitor, err)}
		return
	}
	artifact, err := c.fileWaitStabilize(ctx, sessionID, &job, profile)
	if err != nil {
		finalOutcome = types.Outcome{Failure: toFailure(types.PhaseStabilize, err)}
		return
	}
	localPath, size, sha, err := c.fetch(ctx, sessionID, &job, artifact)
	if err != nil {
		finalOutcome = types.Outcome{Failure: toFailure(types.PhaseFetch, err)}
		return
	}
	defer os.Remove(localPath)

	// upload's own error is not authoritative: HEAD is (spec §4.3
	// VERIFY, testable property 6). Always attempt verify with the
	// intended key, even when the upload call itself reported failure.
	key, uploadErr := c.upload(ctx, &job, artifact.Path, localPath, size)

	verifiedSize, err := c.verify(ctx, key, size)
	if err != nil {
		if uploadErr != nil {
			finalOutcome = types.Outcome{Failure: toFailure(types.PhaseUpload, uploadErr)}
		} else {
			finalOutcome = types.Outcome{Failure: toFailure(types.PhaseVerify, err)}
		}
		return
	}

	_ = sha // recorded for integrity comparison upstream of VERIFY; VERIFY itself is size-authoritative per spec §4.3
	job.Phase = types.PhaseDone
	job.Result = types.ResultSuccess
	job.ObjectStoreKey = key
	finalOutcome = types.Outcome{Key: key, Size: verifiedSize}
	metrics.JobsTotal.WithLabelValues("success", "").Inc()
	return
}

func (c *Collector) fail(hostname string, err error) types.Outcome {
	phase := types.PhasePrecheck
	var pe *PhaseError
	if p, ok := err.(*PhaseError); ok {
		pe = p
		phase = pe.Phase
	}
	failure := toFailure(phase, err)
	metrics.JobsTotal.WithLabelValues("failure", string(failure.Kind)).Inc()
	return types.Outcome{Hostname: hostname, Failure: failure}
}

// precheck resolves the host and confirms platform/tool compatibility.
// No session is opened and no workspace touched here (spec S4).
func (c *Collector) precheck(ctx context.Context, job *types.CollectionJob) (types.Host, error) {
	job.Phase = types.PhasePrecheck
	host, err := c.hosts.DiscoverHost(ctx, job.Host.Hostname, false)
	if err != nil {
		return types.Host{}, phaseErr(types.PhasePrecheck, types.KindNotFoundOffline, "discovery failed", err)
	}
	if !host.Online {
		return types.Host{}, phaseErr(types.PhasePrecheck, types.KindNotFoundOffline, "host offline", nil)
	}
	if job.Tool.RequiresWindows() && host.Platform != types.PlatformWindows {
		return types.Host{}, phaseErr(types.PhasePrecheck, types.KindPlatformMismatch,
			fmt.Sprintf("tool %s requires windows, host is %s", job.Tool, host.Platform), nil)
	}
	return host, nil
}

// workspacePath resolves the configured workspace directory for the
// host's platform.
func (c *Collector) workspacePath(plat types.Platform) string {
	if plat.IsUnix() {
		return c.cfg.Workspace.Unix
	}
	return c.cfg.Workspace.Windows
}

func (c *Collector) runDuration(tool types.Tool) time.Duration {
	switch tool {
	case types.ToolKAPE:
		return c.cfg.RunDurations.KAPE
	case types.ToolUAC:
		return c.cfg.RunDurations.UAC
	default:
		return c.cfg.RunDurations.BrowserHistory
	}
}

func (c *Collector) clean(ctx context.Context, sessionID string, job types.CollectionJob) {
	workspace := c.workspacePath(job.Host.Platform)
	adapter := platform.For(job.Host.Platform)
	_, _ = c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand:       "runscript",
		FullCommandString: adapter.RmRf(workspace),
		Privilege:         types.PrivilegeActiveResponder,
	}, c.cfg.Timeouts.Command)
	_ = c.sessions.Release(ctx, sessionID)
}
