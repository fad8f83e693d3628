package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformIsUnix(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		expected bool
	}{
		{"windows", PlatformWindows, false},
		{"mac", PlatformMac, true},
		{"linux", PlatformLinux, true},
		{"unix-other", PlatformUnixOther, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.platform.IsUnix())
		})
	}
}

func TestToolRequiresWindows(t *testing.T) {
	assert.True(t, ToolKAPE.RequiresWindows())
	assert.False(t, ToolUAC.RequiresWindows())
	assert.False(t, ToolBrowserHistory.RequiresWindows())
}

func TestSessionUsable(t *testing.T) {
	tests := []struct {
		status   SessionStatus
		expected bool
	}{
		{SessionInitializing, false},
		{SessionActive, true},
		{SessionExpiring, false},
		{SessionClosed, false},
		{SessionFailed, false},
	}

	for _, tt := range tests {
		s := &Session{Status: tt.status}
		assert.Equal(t, tt.expected, s.Usable(), "status=%s", tt.status)
	}
}

func TestOutcomeSucceeded(t *testing.T) {
	success := Outcome{Hostname: "WIN-1", Key: "kape/WIN-1/out.7z", Size: 100}
	assert.True(t, success.Succeeded())

	failure := Outcome{Hostname: "LIN-2", Failure: &Failure{Kind: KindPlatformMismatch, Phase: PhasePrecheck}}
	assert.False(t, failure.Succeeded())
}

func TestFailureError(t *testing.T) {
	var f *Failure
	assert.Equal(t, "", f.Error())

	f = &Failure{Phase: PhaseStabilize, Kind: KindTimeout, Detail: "primary_unstable"}
	assert.Equal(t, "STABILIZE: timeout: primary_unstable", f.Error())
}
