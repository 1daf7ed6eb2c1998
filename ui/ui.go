// Package ui is a touchscreen operator panel for ordering cocktails and running pumps by hand.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/calvinmclean/barbot/controller"
	"github.com/calvinmclean/barbot/recipe"
)

const allMotors = "All Motors"

// VolumeOptions are the manual dispense volumes in mL
var VolumeOptions = []string{"5", "10", "15", "25", "30", "45", "60", "80"}

const defaultVolume = "25"

// Operator is the set of Scheduler operations used by the panel
type Operator interface {
	DispenseSingle(ctx context.Context, pump int, volume float64) (*controller.Result, error)
	DispenseAll(ctx context.Context, volume float64) (*controller.Result, error)
	PrepareRecipe(ctx context.Context, name string) (*controller.Result, error)
	StopAll() error
	SignalWaiting(ctx context.Context)
	SignalFinished(ctx context.Context)
	Recipes() *recipe.Catalog
	Pumps() []controller.Pump
}

var _ Operator = &controller.Scheduler{}

// Panel is the fyne application. It implements io.Writer so logs can be shown in the panel
type Panel struct {
	app fyne.App

	logMtx   sync.Mutex
	logLines []string
	logText  *widget.Label
}

func NewPanel() *Panel {
	return &Panel{
		app:     app.NewWithID("com.calvinmclean.barbot"),
		logText: widget.NewLabel(""),
	}
}

// App returns the underlying fyne.App
func (p *Panel) App() fyne.App {
	return p.app
}

const maxLogLines = 200

// Write implements io.Writer. Each write is appended to the log view
func (p *Panel) Write(b []byte) (int, error) {
	line := strings.TrimRight(string(b), "\n")

	p.logMtx.Lock()
	p.logLines = append(p.logLines, line)
	if len(p.logLines) > maxLogLines {
		p.logLines = p.logLines[len(p.logLines)-maxLogLines:]
	}
	text := strings.Join(p.logLines, "\n")
	p.logMtx.Unlock()

	fyne.Do(func() {
		p.logText.SetText(text)
	})

	return len(b), nil
}

// ShowConfig opens the configuration window. onSubmit is called with the chosen Config
func (p *Panel) ShowConfig(cfg controller.Config, onSubmit func(controller.Config)) {
	cw := NewConfigWindow(p.app)
	cw.OnSubmit = onSubmit
	cw.Show(&cfg)
}

// ShowError shows err and quits when it is dismissed
func (p *Panel) ShowError(err error) {
	window := p.app.NewWindow("Barbot - Error")
	window.Resize(fyne.NewSize(300, 150))
	window.Show()
	showError(p.app, window, err)
}

// Show opens the main window. Closing it or cancelling ctx quits the app
func (p *Panel) Show(ctx context.Context, op Operator) {
	ctx, cancel := context.WithCancel(ctx)

	window := p.app.NewWindow("Barbot")
	window.SetOnClosed(cancel)

	pourTimer := newTimer()
	pourTimer.Go(ctx)

	status := widget.NewLabel("Ready")

	// run calls fn in the background so the UI stays responsive while pumps run
	run := func(label string, fn func(context.Context) (*controller.Result, error)) {
		pourTimer.Start(time.Now())
		status.SetText(label + "...")

		go func() {
			result, err := fn(ctx)
			pourTimer.Finish(time.Now())

			fyne.Do(func() {
				switch {
				case result == nil && err != nil:
					status.SetText("Error")
					dialog.ShowError(err, window)
				case err != nil:
					status.SetText(fmt.Sprintf("%s finished with errors in %s", label, result.Elapsed().Round(time.Millisecond)))
					dialog.ShowError(err, window)
				case result.Stopped:
					status.SetText(label + " stopped")
				default:
					status.SetText(fmt.Sprintf("%s done in %s", label, result.Elapsed().Round(time.Millisecond)))
				}
			})
		}()
	}

	content := container.NewVBox(
		container.NewHBox(
			container.NewPadded(pourTimer.text),
			layout.NewSpacer(),
			status,
		),
		widget.NewCard("Cocktails", "", p.recipeButtons(window, op, run)),
		widget.NewCard("Manual Dispense", "", p.manualControls(op, run)),
		p.controlButtons(ctx, window, op),
		p.logAccordion(),
	)

	go func() {
		<-ctx.Done()
		_ = op.StopAll()
		fyne.Do(func() {
			p.app.Quit()
		})
	}()

	window.SetContent(container.NewVScroll(content))
	window.Resize(fyne.NewSize(480, 640))
	window.Show()
}

// Run starts the fyne event loop and blocks until the app quits
func (p *Panel) Run() {
	p.app.Run()
}

func (p *Panel) recipeButtons(window fyne.Window, op Operator, run func(string, func(context.Context) (*controller.Result, error))) fyne.CanvasObject {
	catalog := op.Recipes()
	if catalog == nil || catalog.Len() == 0 {
		return widget.NewLabel("No recipes loaded")
	}

	grid := container.NewGridWithColumns(2)
	for _, r := range catalog.All() {
		grid.Add(widget.NewButton(r.Name, func() {
			showRecipe(window, r, func() {
				run(r.Name, func(ctx context.Context) (*controller.Result, error) {
					return op.PrepareRecipe(ctx, r.Name)
				})
			})
		}))
	}
	return grid
}

// showRecipe shows the ingredients of a recipe with a button to order it
func showRecipe(window fyne.Window, r recipe.Recipe, onOrder func()) {
	var details strings.Builder
	for _, i := range r.Ingredients {
		fmt.Fprintf(&details, "%s: %g mL\n", i.Name, i.Quantity)
	}
	fmt.Fprintf(&details, "\nTotal: %g mL", r.TotalVolume())

	dialog.ShowCustomConfirm(r.Name, "Order", "Cancel", widget.NewLabel(details.String()), func(order bool) {
		if order {
			onOrder()
		}
	}, window)
}

func (p *Panel) manualControls(op Operator, run func(string, func(context.Context) (*controller.Result, error))) fyne.CanvasObject {
	motors := []string{allMotors}
	for _, pump := range op.Pumps() {
		motors = append(motors, motorName(pump.Number))
	}

	motorSelect := widget.NewSelect(motors, nil)
	motorSelect.SetSelected(allMotors)

	volumeSelect := widget.NewSelect(VolumeOptions, nil)
	volumeSelect.SetSelected(defaultVolume)

	startButton := widget.NewButton("Start", func() {
		volume, err := strconv.ParseFloat(volumeSelect.Selected, 64)
		if err != nil {
			return
		}

		label := fmt.Sprintf("%s mL from %s", volumeSelect.Selected, motorSelect.Selected)
		if motorSelect.Selected == allMotors {
			run(label, func(ctx context.Context) (*controller.Result, error) {
				return op.DispenseAll(ctx, volume)
			})
			return
		}

		pump, ok := parseMotorName(motorSelect.Selected)
		if !ok {
			return
		}
		run(label, func(ctx context.Context) (*controller.Result, error) {
			return op.DispenseSingle(ctx, pump, volume)
		})
	})

	return container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewLabel("Motor"),
			motorSelect,
		),
		container.NewGridWithColumns(2,
			widget.NewLabel("Volume (mL)"),
			volumeSelect,
		),
		startButton,
	)
}

func (p *Panel) controlButtons(ctx context.Context, window fyne.Window, op Operator) fyne.CanvasObject {
	stopButton := widget.NewButton("STOP PUMPS", func() {
		err := op.StopAll()
		if err != nil {
			dialog.ShowError(err, window)
		}
	})
	stopButton.Importance = widget.DangerImportance

	return container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewButton("LED Waiting", func() { go op.SignalWaiting(ctx) }),
			widget.NewButton("LED Off", func() { go op.SignalFinished(ctx) }),
		),
		stopButton,
	)
}

func (p *Panel) logAccordion() *widget.Accordion {
	logScroll := container.NewVScroll(p.logText)
	logScroll.SetMinSize(fyne.NewSize(300, 150))

	return widget.NewAccordion(
		widget.NewAccordionItem("Logs", logScroll),
	)
}

func motorName(n int) string {
	return fmt.Sprintf("Motor %d", n)
}

func parseMotorName(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "Motor "))
	if err != nil {
		return 0, false
	}
	return n, true
}
