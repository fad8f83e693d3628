package collector

import (
	"context"
	"strings"
	"time"

	"github.com/cuemby/fnerd-orchestrator/pkg/platform"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// runMonitor polls for job completion by observing side effects on
// disk, never by waiting on the launch command itself (spec §4.3
// RUN_MONITOR). The session's own pulse timer (pkg/session) keeps the
// channel alive in the background while this loop runs.
func (c *Collector) runMonitor(ctx context.Context, sessionID string, job *types.CollectionJob, profile Profile) error {
	job.Phase = types.PhaseRunMonitor
	adapter := platform.For(job.Host.Platform)
	workspace := job.WorkspacePath
	deadline := c.now().Add(c.runDuration(job.Tool))
	interval := c.cfg.Timeouts.ProgressPoll

	for {
		if job.Host.Platform.IsUnix() {
			exitFile := adapter.ExitCodeFile(workspace)
			result, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
				BaseCommand: "runscript", FullCommandString: adapter.Tail(exitFile, 8), Privilege: types.PrivilegeActiveResponder,
			}, c.cfg.Timeouts.Command)
			if err == nil {
				if code := strings.TrimSpace(result.Stdout); code != "" {
					if code == "0" {
						return nil
					}
					return phaseErr(types.PhaseRunMonitor, types.KindInternal, "tool exited non-zero: "+code, nil)
				}
			}
		}

		artifact, found, err := c.findGlob(ctx, sessionID, job, profile.PrimaryGlob)
		if err == nil && found && artifact.SizeBytes > 0 {
			return nil
		}

		if c.now().After(deadline) {
			return phaseErr(types.PhaseRunMonitor, types.KindTimeout, "max_run_duration elapsed without progress", nil)
		}

		if err := c.sleepOrCancel(ctx, interval); err != nil {
			return phaseErr(types.PhaseRunMonitor, types.KindCancelled, "cancelled", err)
		}
	}
}

// sleepOrCancel waits for d, returning early with ctx.Err() if ctx is
// cancelled first. Callers never block past a suspension point
// without checking cancellation (spec §5).
func (c *Collector) sleepOrCancel(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
