// Package api exposes the Scheduler's operations over HTTP so the machine can be run from a phone or
// another service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/calvinmclean/barbot/controller"
	"github.com/calvinmclean/barbot/recipe"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Operator is the set of Scheduler operations used by the API
type Operator interface {
	DispenseSingle(ctx context.Context, pump int, volume float64) (*controller.Result, error)
	DispenseAll(ctx context.Context, volume float64) (*controller.Result, error)
	PrepareRecipe(ctx context.Context, name string) (*controller.Result, error)
	StopAll() error
	SignalWaiting(ctx context.Context)
	SignalFinished(ctx context.Context)
	SignalAllOff(ctx context.Context)

	Recipes() *recipe.Catalog
	Pumps() []controller.Pump
	Telemetry() *controller.Telemetry
	InProgress() bool
	LastResult() *controller.Result
}

var _ Operator = &controller.Scheduler{}

// API serves the HTTP routes for an Operator
type API struct {
	op     Operator
	logger *zap.Logger
	router chi.Router
}

func New(op Operator, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &API{op: op, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/status", a.getStatus)
	r.Get("/telemetry", a.getTelemetry)

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", a.listRecipes)
		r.Get("/{name}", a.getRecipe)
		r.Post("/{name}/prepare", a.prepareRecipe)
	})

	r.Route("/pumps", func(r chi.Router) {
		r.Get("/", a.listPumps)
		r.Post("/dispense", a.dispenseAll)
		r.Post("/{number}/dispense", a.dispenseSingle)
	})

	r.Post("/stop", a.stop)
	r.Post("/notify/waiting", a.notifyWaiting)
	r.Post("/notify/finished", a.notifyFinished)
	r.Post("/notify/alloff", a.notifyAllOff)

	a.router = r

	return a
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Serve runs an HTTP server until ctx is done
func (a *API) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           a,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", addr))
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	err = <-errChan
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		a.logger.Debug(
			"handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (a *API) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := &StatusResponse{InProgress: a.op.InProgress()}
	if last := a.op.LastResult(); last != nil {
		resp.LastResult = newResultResponse(last)
	}
	render.JSON(w, r, resp)
}

func (a *API) getTelemetry(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.op.Telemetry().Snapshot())
}

func (a *API) listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes := []render.Renderer{}
	if c := a.op.Recipes(); c != nil {
		for _, rec := range c.All() {
			recipes = append(recipes, newRecipeResponse(rec))
		}
	}
	_ = render.RenderList(w, r, recipes)
}

func (a *API) getRecipe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	c := a.op.Recipes()
	if c == nil {
		_ = render.Render(w, r, ErrNotFound(fmt.Errorf("%w: %q", recipe.ErrUnknownRecipe, name)))
		return
	}

	rec, err := c.Get(name)
	if err != nil {
		_ = render.Render(w, r, errorResponse(err))
		return
	}

	_ = render.Render(w, r, newRecipeResponse(rec))
}

func (a *API) prepareRecipe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	result, err := a.op.PrepareRecipe(context.WithoutCancel(r.Context()), name)
	a.renderResult(w, r, result, err)
}

func (a *API) listPumps(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.op.Pumps())
}

func (a *API) dispenseSingle(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		_ = render.Render(w, r, ErrInvalidRequest(fmt.Errorf("invalid pump number: %w", err)))
		return
	}

	var req DispenseRequest
	err = render.Bind(r, &req)
	if err != nil {
		_ = render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	result, err := a.op.DispenseSingle(context.WithoutCancel(r.Context()), number, req.Volume)
	a.renderResult(w, r, result, err)
}

func (a *API) dispenseAll(w http.ResponseWriter, r *http.Request) {
	var req DispenseRequest
	err := render.Bind(r, &req)
	if err != nil {
		_ = render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	result, err := a.op.DispenseAll(context.WithoutCancel(r.Context()), req.Volume)
	a.renderResult(w, r, result, err)
}

func (a *API) stop(w http.ResponseWriter, r *http.Request) {
	err := a.op.StopAll()
	if err != nil {
		_ = render.Render(w, r, errorResponse(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) notifyWaiting(w http.ResponseWriter, r *http.Request) {
	a.op.SignalWaiting(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) notifyFinished(w http.ResponseWriter, r *http.Request) {
	a.op.SignalFinished(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) notifyAllOff(w http.ResponseWriter, r *http.Request) {
	a.op.SignalAllOff(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// renderResult responds with the Result when there is one, even if some pumps failed
func (a *API) renderResult(w http.ResponseWriter, r *http.Request, result *controller.Result, err error) {
	if result == nil {
		_ = render.Render(w, r, errorResponse(err))
		return
	}

	if err != nil {
		a.logger.Error("dispense finished with errors", zap.String("request", result.ID.String()), zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
	}

	_ = render.Render(w, r, newResultResponse(result))
}
