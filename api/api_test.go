package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/calvinmclean/barbot"
	"github.com/calvinmclean/barbot/controller"
	"github.com/calvinmclean/barbot/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	mu   sync.Mutex
	sent []barbot.Command
}

func (r *recordingChannel) Send(_ context.Context, cmd barbot.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, cmd)
	return nil
}

func (r *recordingChannel) Close() error { return nil }

func (r *recordingChannel) Sent() []barbot.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]barbot.Command(nil), r.sent...)
}

func newTestAPI(t *testing.T, flowRate float64) (*API, *controller.Sim, *recordingChannel) {
	t.Helper()

	catalog, err := recipe.New(
		recipe.Recipe{Name: "AMF", Ingredients: []recipe.Ingredient{
			{Motor: 1, Name: "Vodka", Quantity: 15},
			{Motor: 2, Name: "Rum", Quantity: 15},
		}},
		recipe.Recipe{Name: "Midori Sour", Ingredients: []recipe.Ingredient{
			{Motor: 3, Name: "Midori", Quantity: 45},
		}},
	)
	require.NoError(t, err)

	sim := controller.NewSim(nil)
	ch := &recordingChannel{}
	s, err := controller.New(controller.Options{
		Pins:     []string{"A", "B", "C"},
		FlowRate: flowRate,
		Actuator: sim,
		Notifier: ch,
		Recipes:  catalog,
	})
	require.NoError(t, err)

	return New(s, nil), sim, ch
}

func do(t *testing.T, a *API, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.ServeHTTP(w, r)

	return w
}

func TestRecipes(t *testing.T) {
	a, _, _ := newTestAPI(t, 1000)

	t.Run("List", func(t *testing.T) {
		w := do(t, a, http.MethodGet, "/recipes", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp []RecipeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "AMF", resp[0].Name)
		assert.Equal(t, 30.0, resp[0].TotalVolume)
		assert.Equal(t, "Midori Sour", resp[1].Name)
	})

	t.Run("Get", func(t *testing.T) {
		w := do(t, a, http.MethodGet, "/recipes/Midori%20Sour", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp RecipeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Midori Sour", resp.Name)
		assert.Equal(t, []recipe.Ingredient{{Motor: 3, Name: "Midori", Quantity: 45}}, resp.Ingredients)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		w := do(t, a, http.MethodGet, "/recipes/Mojito", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "unknown recipe")
	})
}

func TestPrepareRecipe(t *testing.T) {
	a, sim, ch := newTestAPI(t, 1000)

	w := do(t, a, http.MethodPost, "/recipes/AMF/prepare", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Kind    string `json:"kind"`
		Recipe  string `json:"recipe"`
		Stopped bool   `json:"stopped"`
		Jobs    []struct {
			Pump   controller.Pump `json:"pump"`
			Volume float64         `json:"volume"`
		} `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "recipe", resp.Kind)
	assert.Equal(t, "AMF", resp.Recipe)
	assert.False(t, resp.Stopped)
	assert.Len(t, resp.Jobs, 2)

	assert.False(t, sim.AnyEnergized())
	assert.Equal(t, []barbot.Command{barbot.CommandAdios, barbot.CommandComplete}, ch.Sent())

	w = do(t, a, http.MethodPost, "/recipes/Mojito/prepare", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispense(t *testing.T) {
	a, sim, _ := newTestAPI(t, 1000)

	tests := []struct {
		name         string
		path         string
		body         string
		expectedCode int
		expectedJobs int
	}{
		{"Single", "/pumps/2/dispense", `{"volume": 20}`, http.StatusOK, 1},
		{"All", "/pumps/dispense", `{"volume": 20}`, http.StatusOK, 3},
		{"MissingVolume", "/pumps/2/dispense", `{}`, http.StatusBadRequest, 0},
		{"NegativeVolume", "/pumps/dispense", `{"volume": -5}`, http.StatusBadRequest, 0},
		{"InvalidJSON", "/pumps/dispense", `{"volume":`, http.StatusBadRequest, 0},
		{"UnknownPump", "/pumps/9/dispense", `{"volume": 20}`, http.StatusNotFound, 0},
		{"InvalidPumpNumber", "/pumps/two/dispense", `{"volume": 20}`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, a, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.expectedCode, w.Code, w.Body.String())

			if tt.expectedJobs == 0 {
				return
			}

			var resp ResultResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Jobs, tt.expectedJobs)
		})
	}

	assert.False(t, sim.AnyEnergized())
}

func TestDispenseActuatorFault(t *testing.T) {
	a, sim, _ := newTestAPI(t, 1000)
	sim.FailOn("B", assert.AnError)

	w := do(t, a, http.MethodPost, "/pumps/dispense", `{"volume": 10}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 3)
	assert.Empty(t, resp.Jobs[0].Error)
	assert.Contains(t, resp.Jobs[1].Error, "actuator fault")
}

func TestStop(t *testing.T) {
	// 5 seconds unless stopped
	a, sim, _ := newTestAPI(t, 20)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- do(t, a, http.MethodPost, "/pumps/dispense", `{"volume": 100}`)
	}()

	require.Eventually(t, sim.AnyEnergized, time.Second, time.Millisecond)

	w := do(t, a, http.MethodPost, "/pumps/dispense", `{"volume": 100}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, a, http.MethodPost, "/stop", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, sim.AnyEnergized())

	select {
	case w = <-done:
	case <-time.After(time.Second):
		t.Fatal("dispense did not return after stop")
	}
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stopped":true`)

	w = do(t, a, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.InProgress)
	require.NotNil(t, status.LastResult)
	assert.True(t, status.LastResult.Result.Stopped)
}

func TestNotify(t *testing.T) {
	a, _, ch := newTestAPI(t, 1000)

	w := do(t, a, http.MethodPost, "/notify/waiting", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, a, http.MethodPost, "/notify/finished", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, a, http.MethodPost, "/notify/alloff", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, []barbot.Command{barbot.CommandWaiting, barbot.CommandFinished, barbot.CommandAllOff}, ch.Sent())
}

func TestTelemetry(t *testing.T) {
	a, _, _ := newTestAPI(t, 1000)

	w := do(t, a, http.MethodGet, "/telemetry", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	w = do(t, a, http.MethodPost, "/pumps/3/dispense", `{"volume": 10}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, a, http.MethodGet, "/telemetry", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[int]controller.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp, 3)
	assert.GreaterOrEqual(t, resp[3].Elapsed(), 10*time.Millisecond)
}

func TestPumps(t *testing.T) {
	a, _, _ := newTestAPI(t, 1000)

	w := do(t, a, http.MethodGet, "/pumps", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []controller.Pump
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []controller.Pump{{Number: 1, Pin: "A"}, {Number: 2, Pin: "B"}, {Number: 3, Pin: "C"}}, resp)
}
