package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/calvinmclean/barbot/controller"
)

// ConfigWindow lets the operator pick the hardware settings before the panel opens. Values are saved to
// the app's preferences and used as the defaults next time
type ConfigWindow struct {
	app      fyne.App
	OnSubmit func(controller.Config)
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

func (cw *ConfigWindow) loadConfigFromPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	cfg.SerialPort = prefs.StringWithFallback("serialPort", cfg.SerialPort)
	cfg.BaudRate = prefs.StringWithFallback("baudRate", cfg.BaudRate)
	cfg.RecipesFile = prefs.StringWithFallback("recipesFile", cfg.RecipesFile)
	cfg.Pins = prefs.StringWithFallback("relayPins", cfg.Pins)
	cfg.FlowRate = prefs.StringWithFallback("flowRate", cfg.FlowRate)
	cfg.PinDriver = prefs.StringWithFallback("pinDriver", cfg.PinDriver)
	cfg.TWChartAddr = prefs.StringWithFallback("twchartAddr", cfg.TWChartAddr)
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetString("baudRate", cfg.BaudRate)
	prefs.SetString("recipesFile", cfg.RecipesFile)
	prefs.SetString("relayPins", cfg.Pins)
	prefs.SetString("flowRate", cfg.FlowRate)
	prefs.SetString("pinDriver", cfg.PinDriver)
	prefs.SetString("twchartAddr", cfg.TWChartAddr)
}

func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("Barbot - Configuration")
	window.Resize(fyne.NewSize(450, 300))
	window.SetCloseIntercept(func() {
		// Treat window close as cancel
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	cw.loadConfigFromPreferences(cfg)

	serialPorts, err := controller.GetSerialPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		showError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}

	serialPorts = append(serialPorts, controller.SerialPortNone)

	serialEntry := widget.NewSelect(serialPorts, nil)
	if cfg.SerialPort == "" {
		cfg.SerialPort = serialPorts[0]
	}
	serialEntry.Bind(binding.BindString(&cfg.SerialPort))

	baudRateEntry := widget.NewEntry()
	baudRateEntry.Bind(binding.BindString(&cfg.BaudRate))

	recipesEntry := widget.NewEntry()
	recipesEntry.Bind(binding.BindString(&cfg.RecipesFile))

	pinsEntry := widget.NewEntry()
	pinsEntry.Bind(binding.BindString(&cfg.Pins))

	flowRateEntry := widget.NewEntry()
	flowRateEntry.Bind(binding.BindString(&cfg.FlowRate))

	driverEntry := widget.NewSelect([]string{controller.PinDriverGPIO, controller.PinDriverSim}, nil)
	driverEntry.Bind(binding.BindString(&cfg.PinDriver))

	twchartAddrEntry := widget.NewEntry()
	twchartAddrEntry.SetPlaceHolder("optional")
	twchartAddrEntry.Bind(binding.BindString(&cfg.TWChartAddr))

	submitButton := widget.NewButton("Submit", func() {
		cw.saveConfigToPreferences(cfg)
		window.Close()
		cw.OnSubmit(*cfg)
	})
	submitButton.Disable()

	validateForm := func() {
		allFieldsValid := cfg.SerialPort != "" &&
			cfg.BaudRate != "" &&
			cfg.RecipesFile != "" &&
			cfg.Pins != "" &&
			cfg.FlowRate != "" &&
			cfg.PinDriver != ""

		if allFieldsValid {
			submitButton.Enable()
		} else {
			submitButton.Disable()
		}
	}

	serialEntry.OnChanged = func(_ string) { validateForm() }
	baudRateEntry.OnChanged = func(_ string) { validateForm() }
	recipesEntry.OnChanged = func(_ string) { validateForm() }
	pinsEntry.OnChanged = func(_ string) { validateForm() }
	flowRateEntry.OnChanged = func(_ string) { validateForm() }
	driverEntry.OnChanged = func(_ string) { validateForm() }

	validateForm()

	row := func(label string, obj fyne.CanvasObject) *fyne.Container {
		return container.NewGridWithColumns(2, widget.NewLabel(label), obj)
	}

	form := container.NewVBox(
		widget.NewCard("Configuration", "", container.NewVBox(
			row("Serial Port:", serialEntry),
			row("Baud Rate:", baudRateEntry),
			row("Recipes File:", recipesEntry),
			row("Relay Pins:", pinsEntry),
			row("Flow Rate (mL/s):", flowRateEntry),
			row("Pin Driver:", driverEntry),
			row("TWChart Address:", twchartAddrEntry),
		)),
		container.NewHBox(
			widget.NewButton("Cancel", func() {
				window.Close()
				cw.app.Quit()
			}),
			submitButton,
		),
	)

	window.SetContent(form)
}

func showError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
