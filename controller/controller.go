package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/calvinmclean/barbot"
	"github.com/calvinmclean/barbot/notify"
	"github.com/calvinmclean/barbot/recipe"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnknownPump is returned for a pump number that is not configured
	ErrUnknownPump = errors.New("unknown pump")
	// ErrBusy is returned when a group dispense is requested while another one is running
	ErrBusy = errors.New("another dispense is in progress")
)

const chartExportTimeout = 10 * time.Second

// Options configure a Scheduler
type Options struct {
	// Pins are the relay outputs in pump order: pump 1 uses Pins[0]
	Pins []string
	// FlowRate is the calibrated pump flow in mL/s
	FlowRate float64

	Actuator Actuator
	Notifier notify.Channel
	Recipes  *recipe.Catalog
	Chart    ChartClient
	Logger   *zap.Logger
}

// Scheduler runs pumps for manual dispenses and recipes. Pumps in one request run concurrently and the
// request returns when all of them are done
type Scheduler struct {
	pins      *PinController
	pumps     []Pump
	flowRate  float64
	notifier  notify.Channel
	recipes   *recipe.Catalog
	chart     ChartClient
	telemetry *Telemetry
	logger    *zap.Logger

	// single serializes DispenseSingle requests
	single chan struct{}

	// gate is held for writing by StopAll so no pump can be turned on while stopping
	gate sync.RWMutex

	mu         sync.Mutex
	nextID     int
	active     map[int]context.CancelFunc
	groupBusy  bool
	lastResult *Result
}

// New registers the pins and validates the recipes against the configured pumps
func New(opts Options) (*Scheduler, error) {
	if math.IsNaN(opts.FlowRate) || math.IsInf(opts.FlowRate, 0) || opts.FlowRate <= 0 {
		return nil, fmt.Errorf("invalid flow rate: %v", opts.FlowRate)
	}
	if len(opts.Pins) == 0 {
		return nil, errors.New("no pump pins configured")
	}
	if opts.Actuator == nil {
		return nil, errors.New("missing actuator")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		pins:      NewPinController(opts.Actuator),
		flowRate:  opts.FlowRate,
		notifier:  opts.Notifier,
		recipes:   opts.Recipes,
		chart:     opts.Chart,
		telemetry: NewTelemetry(),
		logger:    logger,
		single:    make(chan struct{}, 1),
		active:    map[int]context.CancelFunc{},
	}
	if s.notifier == nil {
		s.notifier = notify.NewDisconnected(logger)
	}
	if s.chart == nil {
		s.chart = noopTWChartClient{}
	}

	for i, pin := range opts.Pins {
		s.pumps = append(s.pumps, Pump{Number: i + 1, Pin: pin})
	}

	if s.recipes != nil {
		err := s.recipes.Validate(func(n int) bool {
			_, err := s.pump(n)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
	}

	err := s.pins.RegisterPins(opts.Pins)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// DispenseSingle runs one pump. Only one single-pump dispense runs at a time and others wait for it.
// A waiting request is stopped by StopAll without ever turning its pump on
func (s *Scheduler) DispenseSingle(ctx context.Context, pump int, volume float64) (*Result, error) {
	err := validateVolume(volume)
	if err != nil {
		return nil, err
	}

	p, err := s.pump(pump)
	if err != nil {
		return nil, err
	}

	job, err := newJob(p, volume, s.flowRate)
	if err != nil {
		return nil, err
	}

	jobCtx, done := s.begin(ctx)
	defer done()

	select {
	case s.single <- struct{}{}:
		defer func() { <-s.single }()
	case <-jobCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// stopped while waiting: run anyway so the job is marked stopped without energizing
	}

	result := s.run(jobCtx, &Result{Kind: RequestSingle, Jobs: []*Job{job}})

	return result, result.Err()
}

// DispenseAll runs every pump with the same volume. The Result's Elapsed is the wall time for the
// whole group
func (s *Scheduler) DispenseAll(ctx context.Context, volume float64) (*Result, error) {
	err := validateVolume(volume)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(s.pumps))
	for _, p := range s.pumps {
		j, err := newJob(p, volume, s.flowRate)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	err = s.startGroup()
	if err != nil {
		return nil, err
	}
	defer s.endGroup()

	jobCtx, done := s.begin(ctx)
	defer done()

	result := s.run(jobCtx, &Result{Kind: RequestAll, Jobs: jobs})

	s.logger.Info(fmt.Sprintf("Pumping %g mL from All Motors", volume))
	s.logger.Info("Total time: "+humanDuration(result.Elapsed()), zap.Duration("elapsed", result.Elapsed()))

	s.notify(ctx, barbot.CommandComplete)

	return result, result.Err()
}

// PrepareRecipe runs the pumps for each of the recipe's ingredients
func (s *Scheduler) PrepareRecipe(ctx context.Context, name string) (*Result, error) {
	if s.recipes == nil {
		return nil, fmt.Errorf("%w: %q", recipe.ErrUnknownRecipe, name)
	}

	r, err := s.recipes.Get(name)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		p, err := s.pump(i.Motor)
		if err != nil {
			return nil, err
		}

		j, err := newJob(p, i.Quantity, s.flowRate)
		if err != nil {
			return nil, err
		}
		j.Ingredient = i.Name
		jobs = append(jobs, j)
	}

	// Shortest first: the launch and report order roughly matches the order pumps finish in
	sort.SliceStable(jobs, func(a, b int) bool {
		return jobs[a].Volume < jobs[b].Volume
	})

	err = s.startGroup()
	if err != nil {
		return nil, err
	}
	defer s.endGroup()

	jobCtx, done := s.begin(ctx)
	defer done()

	if cmd, ok := r.StartCommand(); ok {
		s.notify(ctx, cmd)
	}

	s.logger.Info(fmt.Sprintf("Preparing 1 %s...", name), zap.String("recipe", name))

	result := s.run(jobCtx, &Result{Kind: RequestRecipe, Recipe: name, Jobs: jobs})

	if result.Stopped {
		s.logger.Info("Cocktail stopped", zap.String("recipe", name))
	} else {
		s.logger.Info("Cocktail ready!", zap.String("recipe", name))
	}
	s.logger.Info("Total time: "+humanDuration(result.Elapsed()), zap.String("recipe", name), zap.Duration("elapsed", result.Elapsed()))

	s.notify(ctx, barbot.CommandComplete)

	return result, result.Err()
}

// StopAll turns off every pump right away and cancels all running jobs. InProgress is false after it
// returns, but a stopped group request still holds the group until its jobs have exited
func (s *Scheduler) StopAll() error {
	s.gate.Lock()
	defer s.gate.Unlock()

	s.mu.Lock()
	for id, cancel := range s.active {
		cancel()
		delete(s.active, id)
	}
	s.mu.Unlock()

	err := s.pins.AllOff()
	if err != nil {
		s.logger.Error("error stopping pumps", zap.Error(err))
		return err
	}

	s.logger.Info("stopped all pumps")
	return nil
}

// SignalWaiting tells the LED controller that the machine is idle and waiting for an order
func (s *Scheduler) SignalWaiting(ctx context.Context) {
	s.notify(ctx, barbot.CommandWaiting)
}

// SignalAllOff tells the LED controller that all pumps were shut off by the operator
func (s *Scheduler) SignalAllOff(ctx context.Context) {
	s.notify(ctx, barbot.CommandAllOff)
}

// SignalFinished turns the LED controller off
func (s *Scheduler) SignalFinished(ctx context.Context) {
	s.notify(ctx, barbot.CommandFinished)
}

// InProgress is true while any dispense is running or waiting to start
func (s *Scheduler) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// Pumps returns the configured pumps in order
func (s *Scheduler) Pumps() []Pump {
	return append([]Pump(nil), s.pumps...)
}

// Telemetry returns the per-pump timing records
func (s *Scheduler) Telemetry() *Telemetry {
	return s.telemetry
}

// Recipes returns the recipe catalog. It is nil if none was configured
func (s *Scheduler) Recipes() *recipe.Catalog {
	return s.recipes
}

// LastResult returns the most recently finished request
func (s *Scheduler) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// FlowRate returns the calibrated flow rate in mL/s
func (s *Scheduler) FlowRate() float64 {
	return s.flowRate
}

// Close turns off all pumps and closes the notification channel
func (s *Scheduler) Close() error {
	return errors.Join(s.StopAll(), s.notifier.Close())
}

func (s *Scheduler) pump(n int) (Pump, error) {
	if n < 1 || n > len(s.pumps) {
		return Pump{}, fmt.Errorf("%w: %d", ErrUnknownPump, n)
	}
	return s.pumps[n-1], nil
}

func (s *Scheduler) startGroup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.groupBusy {
		return ErrBusy
	}
	s.groupBusy = true
	return nil
}

func (s *Scheduler) endGroup() {
	s.mu.Lock()
	s.groupBusy = false
	s.mu.Unlock()
}

// begin registers a cancellable context for a request so StopAll can interrupt it
func (s *Scheduler) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.active[id] = cancel
	s.mu.Unlock()

	return ctx, func() {
		cancel()
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	}
}

// run starts every job of the Result in its own goroutine and waits for all of them to finish. jobCtx
// must come from begin so StopAll can cancel it
func (s *Scheduler) run(jobCtx context.Context, result *Result) *Result {
	result.ID = uuid.New()
	logger := s.logger.With(zap.String("request", result.ID.String()), zap.String("kind", string(result.Kind)))

	var wg sync.WaitGroup
	for _, j := range result.Jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.run(jobCtx, s.pins, &s.gate, logger)
			if !j.Start.IsZero() {
				s.telemetry.Record(j.Pump.Number, j.Start, j.End)
			}
		}()
	}
	wg.Wait()

	result.Stopped = jobCtx.Err() != nil

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(jobCtx), chartExportTimeout)
	defer cancel()
	err := exportResult(exportCtx, s.chart, result)
	if err != nil {
		logger.Warn("error exporting to TWChart", zap.Error(err))
	}

	return result
}

// notify sends a command to the notification channel. Errors are only logged
func (s *Scheduler) notify(ctx context.Context, cmd barbot.Command) {
	err := s.notifier.Send(context.WithoutCancel(ctx), cmd)
	if err != nil {
		s.logger.Warn("error sending notification", zap.Stringer("command", cmd), zap.Error(err))
	}
}
