// Package payload implements collector.PayloadSource by reading
// pre-built tool archives from a local directory, keyed by the
// filename each collector.Profile already names
// (profile.PayloadFilename). Building those archives (KAPE/UAC
// binary packaging) is out of scope per spec.md §1; this package only
// opens what is already on disk.
package payload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cuemby/fnerd-orchestrator/pkg/collector"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// Dir is a collector.PayloadSource backed by a directory of prebuilt
// archives, one per tool, named the way collector.DefaultProfiles
// names them (kape.zip, uac.zip, browser_history.zip).
type Dir struct {
	root     string
	profiles map[types.Tool]collector.Profile
}

// NewDir builds a Dir payload source. profiles supplies the
// PayloadFilename to look up per tool; pass collector.DefaultProfiles()
// unless the caller overrides profiles.
func NewDir(root string, profiles map[types.Tool]collector.Profile) *Dir {
	return &Dir{root: root, profiles: profiles}
}

// Open reads tool's archive fully into memory and returns it as a
// bounded reader. collector.PayloadSource has no Close method, so
// returning *os.File directly would leak a descriptor on every DEPLOY
// whose tenant cache entry already exists upstream in PutTenantFile.
func (d *Dir) Open(tool types.Tool) (data io.Reader, size int64, err error) {
	profile, ok := d.profiles[tool]
	if !ok {
		return nil, 0, fmt.Errorf("payload: no profile registered for tool %s", tool)
	}
	path := filepath.Join(d.root, profile.PayloadFilename)

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("payload: read %s: %w", path, err)
	}
	return bytes.NewReader(body), int64(len(body)), nil
}
