package executor

import (
	"errors"
	"time"

	"github.com/banshee-data/bencher/internal/sweep"
)

// Outcome is the resolution of one (point, repeat) unit.
type Outcome struct {
	Point    sweep.Point
	Repeat   int
	Results  sweep.Results
	Err      error
	Cached   bool
	Duration time.Duration
}

// Failure describes a unit that produced no result.
type Failure struct {
	Point  string `json:"point"`
	Repeat int    `json:"repeat"`
	Error  string `json:"error"`
	Err    error  `json:"-"`
}

// Summary counts the outcomes of one or more runs.
type Summary struct {
	Units     int       `json:"units"`
	Evaluated int       `json:"evaluated"`
	CacheHits int       `json:"cache_hits"`
	Failed    int       `json:"failed"`
	TimedOut  int       `json:"timed_out"`
	Skipped   int       `json:"skipped"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Units++
	switch {
	case o.Err == nil && o.Cached:
		s.CacheHits++
		return
	case o.Err == nil:
		s.Evaluated++
		return
	}

	var te *sweep.TimeoutError
	switch {
	case errors.As(o.Err, &te):
		s.Evaluated++
		s.TimedOut++
	case errors.Is(o.Err, sweep.ErrNotCached), errors.Is(o.Err, sweep.ErrCancelled):
		s.Skipped++
	default:
		s.Evaluated++
		s.Failed++
	}
	s.Failures = append(s.Failures, Failure{
		Point:  o.Point.String(),
		Repeat: o.Repeat,
		Error:  o.Err.Error(),
		Err:    o.Err,
	})
}

// Merge adds the counts of other to s.
func (s *Summary) Merge(other Summary) {
	s.Units += other.Units
	s.Evaluated += other.Evaluated
	s.CacheHits += other.CacheHits
	s.Failed += other.Failed
	s.TimedOut += other.TimedOut
	s.Skipped += other.Skipped
	s.Failures = append(s.Failures, other.Failures...)
}

// OK reports whether every unit produced a result.
func (s Summary) OK() bool { return len(s.Failures) == 0 }
