package main

import (
	"embed"
	"log"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"

	"simbridge/internal/simulator"
	"simbridge/internal/telemetry"
)

//go:embed all:frontend/dist
var assets embed.FS

const (
	EventFlightData     = "simulator-flight-data"
	EventStatus         = "simulator-status"
	EventRecordingState = "recording-state"
)

func init() {
	application.RegisterEvent[telemetry.Snapshot](EventFlightData)
	application.RegisterEvent[simulator.Status](EventStatus)
	application.RegisterEvent[bool](EventRecordingState)
}

func main() {
	settingsService := NewSettingsService()
	settings := settingsService.GetSettings()

	closeLog := setupLogging(settingsService.dir(), settings.LogLevel)
	defer closeLog()

	instance, err := NewSingleInstance(singleInstanceAddr)
	if err != nil {
		slog.Info("Exiting", "reason", err)
		return
	}
	defer instance.Close()

	db, err := initDB(settingsService.dir())
	if err != nil {
		log.Fatal("failed to init database:", err)
	}
	defer db.Close()

	recorder := NewRecorderService(db)
	feeder := NewFeederService()
	manager := simulator.NewManager(simulator.WithXPlanePort(settings.XPlanePort))
	simService := NewSimulatorService(manager, recorder.Record, feeder.Offer)
	recorder.attach(simService)
	feeder.attach(simService)
	flightPlanService := NewFlightPlanService(simService)
	updateService := &UpdateService{}

	applySettings := func(st Settings) {
		simService.applySettings(st)
		recorder.applySettings(st)
		feeder.applySettings(st)
	}
	applySettings(settings)
	settingsService.OnChange(applySettings)

	app := application.New(application.Options{
		Name:        "SimBridge",
		Description: "Flight simulator telemetry bridge",
		Services: []application.Service{
			application.NewService(settingsService),
			application.NewService(simService),
			application.NewService(flightPlanService),
			application.NewService(recorder),
			application.NewService(feeder),
			application.NewService(updateService),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	simService.setApp(app)
	recorder.setApp(app)

	window := app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "SimBridge",
		Width:  1100,
		Height: 700,
		Mac: application.MacWindow{
			InvisibleTitleBarHeight: 50,
			Backdrop:                application.MacBackdropTranslucent,
			TitleBar:                application.MacTitleBarHiddenInset,
		},
		BackgroundColour: application.NewRGB(10, 10, 10),
		URL:              "/",
	})
	instance.SetOnShow(func() {
		window.Show()
	})

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
