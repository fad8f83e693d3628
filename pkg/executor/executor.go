// Package executor implements the bounded-concurrency fan-out driver
// (spec §4.4): many per-host collector.Collector.Run calls, capped at
// max_concurrent in flight, each host strictly serialized against
// itself, cooperative cancellation via a hierarchical context.Context,
// and a non-blocking progress-event stream.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cuemby/fnerd-orchestrator/pkg/metrics"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

// Runner is the collector capability the executor drives. Defined here
// so the executor never imports pkg/collector's concrete type, only
// the method it calls.
type Runner interface {
	Run(ctx context.Context, job types.CollectionJob) types.Outcome
}

// Executor fans a batch of per-host jobs out over a bounded worker
// pool.
type Executor struct {
	run           Runner
	maxConcurrent int
}

// New builds an Executor. maxConcurrent <= 0 falls back to 20, the
// spec's default (config.Default().MaxConcurrent).
func New(run Runner, maxConcurrent int) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 20
	}
	return &Executor{run: run, maxConcurrent: maxConcurrent}
}

// Summary aggregates one fan-out run's terminal outcomes (spec §3
// supplement: counts by terminal kind, total bytes uploaded, wall-clock
// duration), alongside the raw hostname -> Outcome map Run returns.
type Summary struct {
	Total          int
	Succeeded      int
	Failed         int
	FailuresByKind map[types.ErrorKind]int
	BytesUploaded  int64
	Duration       time.Duration
}

// Result is everything one call to Run produces.
type Result struct {
	Outcomes map[string]types.Outcome
	Summary  Summary
}

// Run drives jobs to completion, at most e.maxConcurrent in flight at
// once across the whole batch. Jobs are grouped by hostname into
// per-host lanes: two jobs for the same host never run concurrently
// and always execute in the order they appear in jobs, while lanes for
// distinct hosts compete freely for the shared concurrency budget
// (spec §4.4 "strictly FIFO per host"). ctx cancellation propagates to
// every in-flight collector.Run call; a lane not yet scheduled when ctx
// is cancelled reports its remaining jobs KindCancelled without ever
// acquiring a session.
//
// events, if non-nil, receives best-effort progress notifications; a
// full channel drops the event rather than blocking a worker (spec
// §4.4). The caller owns draining it and must not close it itself —
// Run closes it once every job has a terminal outcome.
func (e *Executor) Run(ctx context.Context, jobs []types.CollectionJob, events chan<- Event) Result {
	start := time.Now()

	var mu sync.Mutex
	outcomes := make(map[string]types.Outcome, len(jobs))

	lanes := make(map[string][]types.CollectionJob)
	var order []string
	for _, job := range jobs {
		h := job.Host.Hostname
		if _, seen := lanes[h]; !seen {
			order = append(order, h)
		}
		lanes[h] = append(lanes[h], job)
	}

	sem := make(chan struct{}, e.maxConcurrent)
	// errgroup.WithContext's cancel-on-first-error behavior is unused
	// here on purpose: lane funcs always return nil, since a failed
	// collection is an expected outcome (carried in outcomes), not a
	// reason to cancel every other in-flight host.
	g, gCtx := errgroup.WithContext(ctx)

	for _, hostname := range order {
		hostname := hostname
		queue := lanes[hostname]

		g.Go(func() error {
			for _, job := range queue {
				if job.JobID == "" {
					job.JobID = uuid.NewString()
				}
				jobID := job.JobID

				// select picks at random when both cases are ready, so a slot
				// won after cancellation is handed back and the job is not started.
				acquired := false
				select {
				case sem <- struct{}{}:
					acquired = true
				case <-ctx.Done():
				}
				if ctx.Err() != nil {
					if acquired {
						<-sem
					}
					mu.Lock()
					outcomes[hostname] = types.Outcome{Hostname: hostname, Failure: &types.Failure{
						Kind: types.KindCancelled, Phase: types.PhaseInit, Detail: "run cancelled before job started",
					}}
					mu.Unlock()
					emit(events, Event{Type: EventJobFailed, Hostname: hostname, JobID: jobID, Timestamp: time.Now()})
					continue
				}

				metrics.JobsInFlight.Inc()
				emit(events, Event{Type: EventJobStarted, Hostname: hostname, JobID: jobID, Timestamp: time.Now()})
				outcome := e.run.Run(gCtx, job)
				outcome.Hostname = hostname
				metrics.JobsInFlight.Dec()
				<-sem

				mu.Lock()
				outcomes[hostname] = outcome
				mu.Unlock()

				if outcome.Succeeded() {
					emit(events, Event{Type: EventJobSucceeded, Hostname: hostname, JobID: jobID, Timestamp: time.Now()})
				} else {
					emit(events, Event{Type: EventJobFailed, Hostname: hostname, JobID: jobID, Phase: string(outcome.Failure.Phase), Timestamp: time.Now()})
				}
			}
			return nil
		})
	}

	_ = g.Wait()
	if events != nil {
		close(events)
	}

	return Result{Outcomes: outcomes, Summary: summarize(outcomes, time.Since(start))}
}

func emit(events chan<- Event, e Event) {
	if events == nil {
		return
	}
	select {
	case events <- e:
	default:
	}
}

func summarize(outcomes map[string]types.Outcome, elapsed time.Duration) Summary {
	s := Summary{Total: len(outcomes), FailuresByKind: map[types.ErrorKind]int{}, Duration: elapsed}
	for _, o := range outcomes {
		if o.Succeeded() {
			s.Succeeded++
			s.BytesUploaded += o.Size
			continue
		}
		s.Failed++
		if o.Failure != nil {
			s.FailuresByKind[o.Failure.Kind]++
		}
	}
	return s
}
