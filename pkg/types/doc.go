/*
Package types defines the core data structures shared across the
collection orchestrator: hosts, RTR sessions, command requests, the
two-phase remote artifact lifecycle, collection jobs, and the outcome
reported back to callers.

# Core Types

Host topology:
  - Host: a discovered endpoint, cached by the host registry
  - Platform: windows, mac, linux, unix-other

RTR channel:
  - Session / BatchSession: stateful per-host (or per-batch) command channels
  - CommandRequest / CommandResult: one submitted RTR command and its result

Collection pipeline:
  - RemoteArtifact: a file on the host, tracked through StabilityState
  - CollectionJob: the per-host unit driven by the Phase state machine
  - Outcome / Failure: the sum-typed result reported by the fan-out executor

These types are plain data — no behavior beyond small predicates
(Usable, Succeeded, RequiresWindows). Every other package builds on
them; none of them import back into the packages that use them.
*/
package types
