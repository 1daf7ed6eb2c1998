package api

import (
	"errors"
	"net/http"

	"github.com/calvinmclean/barbot/controller"
	"github.com/calvinmclean/barbot/recipe"
	"github.com/go-chi/render"
)

// ErrResponse is an error rendered as JSON
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func newErrResponse(err error, status int) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorText:      err.Error(),
	}
}

func ErrInvalidRequest(err error) *ErrResponse {
	return newErrResponse(err, http.StatusBadRequest)
}

func ErrNotFound(err error) *ErrResponse {
	return newErrResponse(err, http.StatusNotFound)
}

// errorResponse picks the status code for errors returned by the Operator
func errorResponse(err error) *ErrResponse {
	switch {
	case errors.Is(err, recipe.ErrUnknownRecipe), errors.Is(err, controller.ErrUnknownPump):
		return ErrNotFound(err)
	case errors.Is(err, controller.ErrInvalidVolume):
		return ErrInvalidRequest(err)
	case errors.Is(err, controller.ErrBusy):
		return newErrResponse(err, http.StatusConflict)
	default:
		return newErrResponse(err, http.StatusInternalServerError)
	}
}
