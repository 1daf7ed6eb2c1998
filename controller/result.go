package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestKind describes how a group of jobs was requested
type RequestKind string

const (
	RequestSingle RequestKind = "single"
	RequestAll    RequestKind = "all"
	RequestRecipe RequestKind = "recipe"
)

// Result is the outcome of one dispense request. It is read-only after the request returns
type Result struct {
	ID      uuid.UUID   `json:"id"`
	Kind    RequestKind `json:"kind"`
	Recipe  string      `json:"recipe,omitempty"`
	Jobs    []*Job      `json:"jobs"`
	Stopped bool        `json:"stopped"`
}

// Start is when the first pump turned on
func (r *Result) Start() time.Time {
	var start time.Time
	for _, j := range r.Jobs {
		if j.Start.IsZero() {
			continue
		}
		if start.IsZero() || j.Start.Before(start) {
			start = j.Start
		}
	}
	return start
}

// End is when the last pump turned off
func (r *Result) End() time.Time {
	var end time.Time
	for _, j := range r.Jobs {
		if j.End.After(end) {
			end = j.End
		}
	}
	return end
}

// Elapsed is the wall-clock time from the first pump starting to the last pump finishing
func (r *Result) Elapsed() time.Duration {
	start, end := r.Start(), r.End()
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}

// Failed returns the jobs that had an error
func (r *Result) Failed() []*Job {
	var failed []*Job
	for _, j := range r.Jobs {
		if j.Err != nil {
			failed = append(failed, j)
		}
	}
	return failed
}

// Err joins the errors of all failed jobs
func (r *Result) Err() error {
	var errs []error
	for _, j := range r.Failed() {
		errs = append(errs, fmt.Errorf("motor %d: %w", j.Pump.Number, j.Err))
	}
	return errors.Join(errs...)
}

// Job returns the job for a pump number
func (r *Result) Job(pump int) (*Job, bool) {
	for _, j := range r.Jobs {
		if j.Pump.Number == pump {
			return j, true
		}
	}
	return nil, false
}
