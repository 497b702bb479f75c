package scheduler

import (
	"fmt"
	"time"
)

// MinInterval is the smallest accepted interval.
const MinInterval = 100 * time.Millisecond

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// Every creates an IntervalSchedule; intervals below MinInterval are raised to it.
func Every(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: max(interval, MinInterval)}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval)
}
