package queue

import "time"

// backoffSchedule is indexed by the attempt count prior to the failure and
// clamped to the last entry. The exact 1/5/15-minute spacing is a tested
// contract; keep it a table, not a formula.
var backoffSchedule = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
}

func backoffFor(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(backoffSchedule) {
		return backoffSchedule[len(backoffSchedule)-1]
	}
	return backoffSchedule[attempt]
}
