package session

import "time"

// pollSchedule generates the adaptive polling cadence used by Execute
// to watch a command's status: starts at 2s, doubles each step, caps
// at 30s (spec §4.2).
type pollSchedule struct {
	next time.Duration
	max  time.Duration
}

func newPollSchedule() *pollSchedule {
	return &pollSchedule{next: 2 * time.Second, max: 30 * time.Second}
}

// Next returns the interval to wait before the next poll and advances
// the schedule.
func (p *pollSchedule) Next() time.Duration {
	interval := p.next
	p.next *= 2
	if p.next > p.max {
		p.next = p.max
	}
	return interval
}
