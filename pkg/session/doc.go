/*
Package session implements the session manager (spec §4.2): it
acquires RTR sessions, keeps them alive with a background pulse timer,
and serializes command execution per session.

# Invariants

  - At most one command in flight per session, enforced by a
    per-session mutex in Execute.
  - The pulse timer fires at idle_timeout/2; a failed pulse marks the
    session expiring, and the next Execute call fails fast instead of
    submitting into a session RTR may have already dropped.
  - Execute polls status with an adaptive schedule (2s doubling to
    30s, schedule.go), capped by the command timeout.

pkg/collector acquires one managed session per host after PRECHECK and
runs its DEPLOY through CLEAN commands via this package; only host
discovery and tenant payload staging go to pkg/rtr directly.
*/
package session
