// Package executor implements the bounded-concurrency fan-out driver
// (spec §4.4) over many independent pkg/collector state machines, one
// lane per hostname, with a shared concurrency budget, cooperative
// cancellation, and a non-blocking progress-event channel grounded on
// the teacher's pkg/events Broker drop-on-full discipline.
package executor
