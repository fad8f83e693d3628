/*
Package log provides structured logging for the collection orchestrator
using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable levels, and helper
functions for the common host/session/job logging patterns. Within
this module, cmd/collectord is the package that calls them.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│  Global Logger (zerolog.Logger, set by log.Init)          │
	│        │                                                  │
	│        ▼                                                  │
	│  Component loggers                                        │
	│    - WithComponent("rtr")                                 │
	│    - WithHost("WIN-1")                                    │
	│    - WithSession("sess-abc")                               │
	│    - WithJob("job-123")                                   │
	└────────────────────────────────────────────────────────────┘

JSON output carries a "component" field plus whichever of host_id,
session_id, job_id the caller attached, so a single collection run can
be filtered end to end in any log aggregator.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("collector").With().Str("host", "WIN-1").Logger()
	logger.Info().Str("phase", "DEPLOY").Msg("workspace created")

Console output (JSONOutput: false) is meant for local development; it
uses zerolog.ConsoleWriter and RFC3339 timestamps.
*/
package log
