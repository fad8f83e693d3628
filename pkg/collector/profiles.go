package collector

import (
	"fmt"

	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// Profile describes everything tool-specific about a collection run:
// the payload to deploy, the command to launch it, and the primary/
// secondary output globs STABILIZE watches.
type Profile struct {
	Tool types.Tool

	// PayloadFilename is the archive name staged into the tenant's
	// cloud file library and expanded into the workspace.
	PayloadFilename string
	// KnownEntry is a file expected inside the expanded archive;
	// its absence means DEPLOY's extract_failed case.
	KnownEntry string

	// PrimaryGlob is the first file RUN_MONITOR watches appear.
	PrimaryGlob string
	// SecondaryGlob is the final output file watched after the
	// primary file stabilizes. Empty means single-phase: the
	// primary-stable file already is the final file (spec §3's
	// browser_history supplement).
	SecondaryGlob string

	// Launch builds the tool invocation given the workspace path.
	Launch func(workspace string) string
}

// DefaultProfiles returns the built-in tool profiles named in spec
// §4.3 (kape, uac) plus the browser_history profile supplemented in
// SPEC_FULL.md §3.
func DefaultProfiles() map[types.Tool]Profile {
	return map[types.Tool]Profile{
		types.ToolKAPE: {
			Tool:            types.ToolKAPE,
			PayloadFilename: "kape.zip",
			KnownEntry:      "kape.exe",
			PrimaryGlob:     "*.vhdx",
			SecondaryGlob:   "*.7z",
			Launch: func(workspace string) string {
				return fmt.Sprintf(`%s\kape.exe --target !BasicCollection --tdest %s --vhdx collection`, workspace, workspace)
			},
		},
		types.ToolUAC: {
			Tool:            types.ToolUAC,
			PayloadFilename: "uac.zip",
			KnownEntry:      "uac",
			PrimaryGlob:     "uac-*.tar.gz",
			SecondaryGlob:   "",
			Launch: func(workspace string) string {
				return fmt.Sprintf(`%s/uac -p ir_triage_no_hash -o %s %s`, workspace, workspace, workspace)
			},
		},
		types.ToolBrowserHistory: {
			Tool:            types.ToolBrowserHistory,
			PayloadFilename: "browser_history.zip",
			KnownEntry:      "browser_history",
			PrimaryGlob:     "browser-history-*.tar.gz",
			SecondaryGlob:   "",
			Launch: func(workspace string) string {
				return fmt.Sprintf(`%s/browser_history -o %s %s`, workspace, workspace, workspace)
			},
		},
	}
}
