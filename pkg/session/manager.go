// Package session implements the session manager (spec §4.2):
// acquiring and releasing RTR sessions, pulsing them to prevent idle
// timeout, and serializing command execution per session.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// Facade is the subset of the rtr façade the session manager depends
// on. Defined here, implemented by *rtr.Client, so tests can supply a
// fake without importing net/http.
type Facade interface {
	InitSession(ctx context.Context, aid string) (types.Session, error)
	Pulse(ctx context.Context, sessionID string) error
	Run(ctx context.Context, req types.CommandRequest) (string, error)
	Status(ctx context.Context, cloudRequestID string) (types.CommandResult, error)
	Close(ctx context.Context, sessionID string) error
}

// Manager owns the lifecycle of acquired sessions.
type Manager struct {
	facade         Facade
	idleTimeout    time.Duration
	pulseInterval  time.Duration
	commandTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	session     types.Session
	execMu      sync.Mutex // enforces at-most-one-in-flight command
	cancelPulse context.CancelFunc
	expiring    atomic.Bool
}

// New builds a Manager. idleTimeout and commandTimeout come from
// config.Timeouts.SessionIdle / config.Timeouts.Command.
func New(facade Facade, idleTimeout, commandTimeout time.Duration) *Manager {
	return &Manager{
		facade:         facade,
		idleTimeout:    idleTimeout,
		pulseInterval:  idleTimeout / 2,
		commandTimeout: commandTimeout,
		sessions:       make(map[string]*managedSession),
	}
}

// Acquire opens a session against host and starts its pulse timer.
func (m *Manager) Acquire(ctx context.Context, host types.Host) (*types.Session, error) {
	sess, err := m.facade.InitSession(ctx, host.AID)
	if err != nil {
		return nil, fmt.Errorf("session: acquire %s: %w", host.Hostname, err)
	}

	pulseCtx, cancel := context.WithCancel(context.Background())
	ms := &managedSession{session: sess, cancelPulse: cancel}

	m.mu.Lock()
	m.sessions[sess.ID] = ms
	m.mu.Unlock()

	go m.pulseLoop(pulseCtx, ms)

	return &ms.session, nil
}

func (m *Manager) pulseLoop(ctx context.Context, ms *managedSession) {
	ticker := time.NewTicker(m.pulseInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.facade.Pulse(ctx, ms.session.ID); err != nil {
				ms.expiring.Store(true)
			}
		}
	}
}

// Execute submits a command on sess and polls for its terminal status
// with the adaptive schedule from spec §4.2, capped by timeout (or the
// manager's configured command timeout when timeout is zero).
func (m *Manager) Execute(ctx context.Context, sessID string, req types.CommandRequest, timeout time.Duration) (types.CommandResult, error) {
	if timeout == 0 {
		timeout = m.commandTimeout
	}

	m.mu.Lock()
	ms, ok := m.sessions[sessID]
	m.mu.Unlock()
	if !ok {
		return types.CommandResult{}, fmt.Errorf("session: execute: unknown session %s", sessID)
	}

	ms.execMu.Lock()
	defer ms.execMu.Unlock()

	if ms.expiring.Load() {
		return types.CommandResult{Status: types.CommandFailed, ErrorKind: types.KindTransient},
			fmt.Errorf("session: execute: session %s is expiring", sessID)
	}

	req.SessionID = sessID
	cloudRequestID, err := m.facade.Run(ctx, req)
	if err != nil {
		return types.CommandResult{}, fmt.Errorf("session: execute: run: %w", err)
	}

	deadline := time.Now().Add(timeout)
	schedule := newPollSchedule()

	for {
		result, err := m.facade.Status(ctx, cloudRequestID)
		if err != nil {
			return types.CommandResult{}, fmt.Errorf("session: execute: status: %w", err)
		}
		if result.Status == types.CommandCompleted || result.Status == types.CommandFailed {
			return result, nil
		}

		wait := schedule.Next()
		if time.Now().Add(wait).After(deadline) {
			wait = time.Until(deadline)
		}
		if wait <= 0 {
			return types.CommandResult{Status: types.CommandTimedOut, ErrorKind: types.KindTimeout},
				fmt.Errorf("session: execute: command %s timed out after %s", cloudRequestID, timeout)
		}

		select {
		case <-ctx.Done():
			return types.CommandResult{Status: types.CommandTimedOut, ErrorKind: types.KindCancelled}, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Release stops the pulse timer and closes the session.
func (m *Manager) Release(ctx context.Context, sessID string) error {
	m.mu.Lock()
	ms, ok := m.sessions[sessID]
	delete(m.sessions, sessID)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	ms.cancelPulse()
	return m.facade.Close(ctx, sessID)
}
