package collector

import (
	"context"

	"github.com/cuemby/fnerd-orchestrator/pkg/platform"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// launch submits the tool invocation in the background so the RTR
// command returns promptly while the tool itself runs for up to hours
// (spec §4.3 LAUNCH).
func (c *Collector) launch(ctx context.Context, sessionID string, job *types.CollectionJob, profile Profile) error {
	job.Phase = types.PhaseLaunch
	adapter := platform.For(job.Host.Platform)
	workspace := job.WorkspacePath
	logfile := joinPath(job.Host.Platform, workspace, "run.log")

	command := adapter.LaunchBackground(profile.Launch(workspace), logfile, workspace)
	result, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand: "runscript", FullCommandString: command, Privilege: types.PrivilegeActiveResponder,
	}, c.cfg.Timeouts.Command)
	if err != nil {
		return phaseErr(types.PhaseLaunch, types.KindTransient, "launch_failed", err)
	}
	if result.Status == types.CommandFailed {
		return phaseErr(types.PhaseLaunch, types.KindInternal, "launch_failed", nil)
	}
	return nil
}
