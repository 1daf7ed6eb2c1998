package api

import (
	"errors"
	"net/http"

	"github.com/calvinmclean/barbot/controller"
	"github.com/calvinmclean/barbot/recipe"
)

// DispenseRequest is the body for dispense routes
type DispenseRequest struct {
	Volume float64 `json:"volume"`
}

// Bind implements render.Binder.
func (d *DispenseRequest) Bind(*http.Request) error {
	if d.Volume == 0 {
		return errors.New("missing required volume field")
	}
	return nil
}

// RecipeResponse is a Recipe with its name and total volume
type RecipeResponse struct {
	Name string `json:"name"`
	recipe.Recipe
	TotalVolume float64 `json:"total_volume"`
}

func newRecipeResponse(r recipe.Recipe) *RecipeResponse {
	return &RecipeResponse{
		Name:        r.Name,
		Recipe:      r,
		TotalVolume: r.TotalVolume(),
	}
}

// Render implements render.Renderer.
func (*RecipeResponse) Render(http.ResponseWriter, *http.Request) error {
	return nil
}

// JobResponse adds the elapsed time and error text to a Job
type JobResponse struct {
	*controller.Job
	Elapsed string `json:"elapsed"`
	Error   string `json:"error,omitempty"`
}

// ResultResponse is the outcome of a dispense request
type ResultResponse struct {
	*controller.Result
	Jobs    []JobResponse `json:"jobs"`
	Elapsed string        `json:"elapsed"`
}

func newResultResponse(r *controller.Result) *ResultResponse {
	resp := &ResultResponse{
		Result:  r,
		Elapsed: r.Elapsed().String(),
	}
	for _, j := range r.Jobs {
		jr := JobResponse{Job: j, Elapsed: j.Elapsed().String()}
		if j.Err != nil {
			jr.Error = j.Err.Error()
		}
		resp.Jobs = append(resp.Jobs, jr)
	}
	return resp
}

// Render implements render.Renderer.
func (*ResultResponse) Render(http.ResponseWriter, *http.Request) error {
	return nil
}

// StatusResponse tells if the machine is busy and what it did last
type StatusResponse struct {
	InProgress bool            `json:"in_progress"`
	LastResult *ResultResponse `json:"last_result,omitempty"`
}
