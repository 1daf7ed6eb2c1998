package controller

import (
	"context"
	"fmt"
	"time"
)

// ChartClient uploads the timeline of a dispense request to a TWChart server
type ChartClient interface {
	CreateSession(ctx context.Context, name string, start time.Time) (string, error)
	AddEvent(ctx context.Context, sessionID, note string, t time.Time) error
	AddStage(ctx context.Context, sessionID, name string, t time.Time) error
	Done(ctx context.Context, sessionID string, t time.Time) error
}

type noopTWChartClient struct{}

var _ ChartClient = noopTWChartClient{}

// AddEvent implements ChartClient.
func (n noopTWChartClient) AddEvent(ctx context.Context, sessionID, note string, t time.Time) error {
	return nil
}

// AddStage implements ChartClient.
func (n noopTWChartClient) AddStage(ctx context.Context, sessionID, name string, t time.Time) error {
	return nil
}

// CreateSession implements ChartClient.
func (n noopTWChartClient) CreateSession(ctx context.Context, name string, start time.Time) (string, error) {
	return "", nil
}

// Done implements ChartClient.
func (n noopTWChartClient) Done(ctx context.Context, sessionID string, t time.Time) error {
	return nil
}

// sessionName is the chart title for a Result
func sessionName(r *Result) string {
	switch r.Kind {
	case RequestRecipe:
		return r.Recipe
	case RequestAll:
		return "All Motors"
	default:
		if len(r.Jobs) == 1 {
			return fmt.Sprintf("Motor %d", r.Jobs[0].Pump.Number)
		}
		return string(r.Kind)
	}
}

// exportResult adds a session with a stage for the request and an event for each pump turning on and off
func exportResult(ctx context.Context, c ChartClient, r *Result) error {
	start := r.Start()
	if start.IsZero() {
		return nil
	}

	id, err := c.CreateSession(ctx, sessionName(r), start)
	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}

	err = c.AddStage(ctx, id, "Pouring", start)
	if err != nil {
		return fmt.Errorf("error adding stage: %w", err)
	}

	for _, j := range r.Jobs {
		if j.Start.IsZero() {
			continue
		}

		label := fmt.Sprintf("Motor %d", j.Pump.Number)
		if j.Ingredient != "" {
			label += " (" + j.Ingredient + ")"
		}

		err = c.AddEvent(ctx, id, fmt.Sprintf("%s on: %g mL", label, j.Volume), j.Start)
		if err != nil {
			return fmt.Errorf("error adding event: %w", err)
		}

		off := label + " off"
		if j.Stopped {
			off += " (stopped)"
		}
		err = c.AddEvent(ctx, id, off, j.End)
		if err != nil {
			return fmt.Errorf("error adding event: %w", err)
		}
	}

	return c.Done(ctx, id, r.End())
}
