package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cuemby/fnerd-orchestrator/pkg/platform"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

var errTimeout = errors.New("stabilization timed out without two matching samples")

// findGlob lists the workspace for files matching glob and, if any
// exist, stats the first match. found is false when nothing matches yet.
func (c *Collector) findGlob(ctx context.Context, sessionID string, job *types.CollectionJob, glob string) (types.RemoteArtifact, bool, error) {
	adapter := platform.For(job.Host.Platform)
	result, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand: "runscript", FullCommandString: adapter.ListGlob(job.WorkspacePath, glob), Privilege: types.PrivilegeActiveResponder,
	}, c.cfg.Timeouts.Command)
	if err != nil {
		return types.RemoteArtifact{}, false, err
	}

	var names []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	if len(names) == 0 {
		return types.RemoteArtifact{}, false, nil
	}

	path := joinPath(job.Host.Platform, job.WorkspacePath, names[0])
	artifact, ok, err := c.transfer.RemoteStat(ctx, sessionID, job.Host.Platform, path, c.cfg.Timeouts.Command)
	if err != nil || !ok {
		return types.RemoteArtifact{}, false, err
	}
	artifact.Path = path
	return artifact, true, nil
}

// stabilize samples path's size/mtime every c.cfg.Timeouts.Stability
// until two consecutive samples match (and size > 0), or timeout
// elapses (spec §4.3 Phase A / Phase B of STABILIZE).
func (c *Collector) stabilize(ctx context.Context, sessionID string, job *types.CollectionJob, path string, timeout time.Duration) (types.RemoteArtifact, error) {
	var prev types.RemoteArtifact
	havePrev := false
	deadline := c.now().Add(timeout)

	for {
		artifact, ok, err := c.transfer.RemoteStat(ctx, sessionID, job.Host.Platform, path, c.cfg.Timeouts.Command)
		if err != nil {
			return types.RemoteArtifact{}, err
		}
		if ok && artifact.SizeBytes > 0 && havePrev &&
			prev.SizeBytes == artifact.SizeBytes && prev.LastModified.Equal(artifact.LastModified) {
			return artifact, nil
		}
		if ok {
			prev, havePrev = artifact, true
		}

		if c.now().After(deadline) {
			return types.RemoteArtifact{}, errTimeout
		}
		if err := c.sleepOrCancel(ctx, c.cfg.Timeouts.Stability); err != nil {
			return types.RemoteArtifact{}, err
		}
	}
}

// fileWaitStabilize drives the two-phase file lifecycle: wait for the
// primary output to appear and stabilize, then (unless the tool
// profile is single-phase) wait for the secondary/final output to
// appear and stabilize. The primary-phase file is never fetched
// (testable property 8).
func (c *Collector) fileWaitStabilize(ctx context.Context, sessionID string, job *types.CollectionJob, profile Profile) (types.RemoteArtifact, error) {
	job.Phase = types.PhaseFileWait
	primary, err := c.waitForGlob(ctx, sessionID, job, profile.PrimaryGlob, c.cfg.Timeouts.Primary)
	if err != nil {
		return types.RemoteArtifact{}, phaseErr(types.PhaseFileWait, types.KindTimeout, "primary file never appeared", err)
	}

	job.Phase = types.PhaseStabilize
	stablePrimary, err := c.stabilize(ctx, sessionID, job, primary.Path, c.cfg.Timeouts.Primary)
	if err != nil {
		return types.RemoteArtifact{}, phaseErr(types.PhaseStabilize, types.KindTimeout, "primary_unstable", err)
	}

	if profile.SecondaryGlob == "" {
		stablePrimary.StabilityState = types.StabilityStable
		return stablePrimary, nil
	}

	job.Phase = types.PhaseFileWait
	secondary, err := c.waitForGlob(ctx, sessionID, job, profile.SecondaryGlob, c.cfg.Timeouts.Secondary)
	if err != nil {
		return types.RemoteArtifact{}, phaseErr(types.PhaseFileWait, types.KindTimeout, "secondary file never appeared", err)
	}

	job.Phase = types.PhaseStabilize
	stableSecondary, err := c.stabilize(ctx, sessionID, job, secondary.Path, c.cfg.Timeouts.Secondary)
	if err != nil {
		return types.RemoteArtifact{}, phaseErr(types.PhaseStabilize, types.KindTimeout, "secondary_unstable", err)
	}
	stableSecondary.StabilityState = types.StabilityStable
	return stableSecondary, nil
}

// waitForGlob polls findGlob until at least one match appears or
// timeout elapses (spec §4.3 FILE_WAIT: primary_stability_timeout /
// secondary_stability_timeout).
func (c *Collector) waitForGlob(ctx context.Context, sessionID string, job *types.CollectionJob, glob string, timeout time.Duration) (types.RemoteArtifact, error) {
	deadline := c.now().Add(timeout)
	for {
		artifact, found, err := c.findGlob(ctx, sessionID, job, glob)
		if err != nil {
			return types.RemoteArtifact{}, err
		}
		if found {
			return artifact, nil
		}
		if c.now().After(deadline) {
			return types.RemoteArtifact{}, errTimeout
		}
		if err := c.sleepOrCancel(ctx, c.cfg.Timeouts.Stability); err != nil {
			return types.RemoteArtifact{}, err
		}
	}
}
