package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/fnerd-orchestrator/pkg/platform"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// deploy ensures the tool payload is present and expanded on the host
// (spec §4.3 DEPLOY).
func (c *Collector) deploy(ctx context.Context, sessionID string, job *types.CollectionJob, profile Profile) error {
	job.Phase = types.PhaseDeploy
	adapter := platform.For(job.Host.Platform)
	workspace := c.workspacePath(job.Host.Platform)
	job.WorkspacePath = workspace

	// Step 1: idempotent workspace creation.
	if _, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand: "runscript", FullCommandString: adapter.MkdirP(workspace), Privilege: types.PrivilegeActiveResponder,
	}, c.cfg.Timeouts.Command); err != nil {
		return phaseErr(types.PhaseDeploy, types.KindTransient, "workspace creation failed", err)
	}

	// Step 2: stage the payload into the tenant's cloud file library
	// (once per tenant, cached) then pull it into the session workspace.
	payload, size, err := c.payloads.Open(job.Tool)
	if err != nil {
		return phaseErr(types.PhaseDeploy, types.KindInternal, "payload source unavailable", err)
	}
	if err := c.tenant.PutTenantFile(ctx, job.Host.CID, profile.PayloadFilename, payload); err != nil {
		return phaseErr(types.PhaseDeploy, types.KindTransient, "put_denied", err)
	}
	_ = size

	if _, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand: "put", FullCommandString: profile.PayloadFilename, Privilege: types.PrivilegeAdmin,
	}, c.cfg.Timeouts.Command); err != nil {
		return phaseErr(types.PhaseDeploy, types.KindTransient, "put_denied", err)
	}

	// Step 3: expand archive, verify a known entry exists.
	archivePath := joinPath(job.Host.Platform, workspace, profile.PayloadFilename)
	if _, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand: "runscript", FullCommandString: adapter.ExpandArchive(archivePath, workspace), Privilege: types.PrivilegeActiveResponder,
	}, c.cfg.Timeouts.Command); err != nil {
		return phaseErr(types.PhaseDeploy, types.KindIntegrity, "extract_failed", err)
	}

	entryPath := joinPath(job.Host.Platform, workspace, profile.KnownEntry)
	result, err := c.sessions.Execute(ctx, sessionID, types.CommandRequest{
		BaseCommand: "runscript", FullCommandString: adapter.Exists(entryPath), Privilege: types.PrivilegeActiveResponder,
	}, c.cfg.Timeouts.Command)
	if err != nil {
		return phaseErr(types.PhaseDeploy, types.KindIntegrity, "extract_failed", err)
	}
	if !strings.Contains(strings.ToLower(result.Stdout), "true") && !strings.Contains(strings.ToLower(result.Stdout), "exists") {
		return phaseErr(types.PhaseDeploy, types.KindIntegrity, fmt.Sprintf("extract_failed: known entry %s missing", profile.KnownEntry), nil)
	}
	return nil
}

// joinPath joins workspace-relative paths with the platform's
// separator, since the workspace itself already carries either form.
func joinPath(plat types.Platform, dir, name string) string {
	if plat.IsUnix() {
		return dir + "/" + name
	}
	return dir + `\` + name
}
