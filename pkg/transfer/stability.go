package transfer

import (
	"context"
	"fmt"
	"time"
)

// Sample is one size/mtime observation of a remote file.
type Sample struct {
	Exists bool
	Size   int64
	MTime  time.Time
}

// StatFunc takes one sample of a remote path.
type StatFunc func(ctx context.Context) (Sample, error)

// Stabilizer implements the two-identical-consecutive-samples rule
// shared by STABILIZE's primary and secondary phases (spec §4.3): a
// file is declared stable once two samples, interval apart, report the
// same nonzero size and mtime.
type Stabilizer struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Wait polls stat every Interval until two consecutive samples match,
// or returns an error once Timeout elapses without stabilizing.
func (s *Stabilizer) Wait(ctx context.Context, stat StatFunc) (Sample, error) {
	deadline := time.Now().Add(s.Timeout)
	var prev Sample
	havePrev := false

	for {
		sample, err := stat(ctx)
		if err != nil {
			return Sample{}, fmt.Errorf("transfer: stabilize: %w", err)
		}

		if sample.Exists && sample.Size > 0 && havePrev &&
			prev.Exists && prev.Size == sample.Size && prev.MTime.Equal(sample.MTime) {
			return sample, nil
		}

		prev, havePrev = sample, true

		if time.Now().After(deadline) {
			return Sample{}, fmt.Errorf("transfer: stabilize: timed out after %s without two matching samples", s.Timeout)
		}

		select {
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		case <-time.After(s.Interval):
		}
	}
}
