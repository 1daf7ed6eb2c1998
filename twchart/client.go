// Package twchart uploads dispense timelines to a TWChart server so pump runs can be reviewed on a chart
package twchart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calvinmclean/babyapi"
	"github.com/calvinmclean/twchart"
)

type Client struct {
	client *babyapi.Client[*session]
}

type session struct {
	// include NilResource so we don't implement Render/Bind which are not needed
	*babyapi.NilResource
	twchart.Session
}

func (s session) GetID() string {
	return s.Session.GetID()
}

func NewClient(addr string) *Client {
	client := babyapi.NewClient[*session](addr, "/sessions")
	return &Client{client: client}
}

// CreateSession creates a session for one dispense request and returns its ID
func (c *Client) CreateSession(ctx context.Context, name string, start time.Time) (string, error) {
	resp, err := c.client.Post(ctx, &session{
		Session: twchart.Session{
			Name:      name,
			Date:      start,
			StartTime: start,
		},
	})
	if err != nil {
		return "", err
	}

	return resp.Data.GetID(), nil
}

func (c *Client) AddEvent(ctx context.Context, sessionID, note string, t time.Time) error {
	return c.post(ctx, sessionID, "/add-event", twchart.Event{Note: note, Time: t})
}

func (c *Client) AddStage(ctx context.Context, sessionID, name string, t time.Time) error {
	return c.post(ctx, sessionID, "/add-stage", twchart.Stage{Name: name, Start: t})
}

func (c *Client) Done(ctx context.Context, sessionID string, t time.Time) error {
	return c.post(ctx, sessionID, "/done", map[string]any{"time": t})
}

func (c *Client) post(ctx context.Context, sessionID, path string, body any) error {
	url, err := c.client.URL(sessionID)
	if err != nil {
		return fmt.Errorf("error creating URL: %w", err)
	}

	return c.makeRequest(ctx, url+path, body)
}

func (c *Client) makeRequest(ctx context.Context, url string, body any) error {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding body: %w", err)
		}

		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := c.client.MakeGenericRequest(req, nil)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	if resp.Response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d, response: %v", resp.Response.StatusCode, resp.Body)
	}

	return nil
}
