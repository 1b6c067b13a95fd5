package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"

	"simbridge/internal/simulator"
	"simbridge/internal/transport/xpuipc"
)

const appDirName = "simbridge"

// Environment keys read from .env next to the settings file.
const (
	envFeederURL   = "SIMBRIDGE_FEEDER_URL"
	envFeederToken = "SIMBRIDGE_FEEDER_TOKEN"
	envXPlanePort  = "SIMBRIDGE_XPLANE_PORT"
	envLogLevel    = "SIMBRIDGE_LOG_LEVEL"
)

type Settings struct {
	Theme            string `json:"theme"`
	SimType          string `json:"simType"`
	XPlanePort       int    `json:"xplanePort"`
	SimbriefUsername string `json:"simbriefUsername"`
	RecordTelemetry  bool   `json:"recordTelemetry"`
	FeederEnabled    bool   `json:"feederEnabled"`
	FeederURL        string `json:"feederURL"`
	FeederToken      string `json:"feederToken"`
	FeederIntervalMs int    `json:"feederIntervalMs"`
	LogLevel         string `json:"logLevel"`
}

func defaultSettings() Settings {
	return Settings{
		Theme:            "dark",
		SimType:          string(simulator.MSFS),
		XPlanePort:       xpuipc.DefaultPort,
		FeederURL:        "http://localhost:8080",
		FeederIntervalMs: 500,
		LogLevel:         "info",
	}
}

type SettingsService struct {
	mu       sync.RWMutex
	settings Settings
	filePath string
	onChange []func(Settings)
}

func NewSettingsService() *SettingsService {
	configDir, _ := os.UserConfigDir()
	fp := filepath.Join(configDir, appDirName, "settings.json")

	s := &SettingsService{
		filePath: fp,
		settings: defaultSettings(),
	}
	s.load()
	s.applyEnv()
	return s
}

// dir is where settings, logs and the telemetry database live.
func (s *SettingsService) dir() string {
	return filepath.Dir(s.filePath)
}

func (s *SettingsService) GetSettings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsService) UpdateSettings(settings Settings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = settings
	err := s.save()
	hooks := append([]func(Settings){}, s.onChange...)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for _, fn := range hooks {
		fn(settings)
	}
	return nil
}

// OnChange registers fn to run after every successful update.
func (s *SettingsService) OnChange(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func validateSettings(st Settings) error {
	if _, err := simulator.ParseKind(st.SimType); err != nil {
		return err
	}
	if st.XPlanePort < 0 || st.XPlanePort > 65535 {
		return fmt.Errorf("invalid X-Plane port %d", st.XPlanePort)
	}
	if st.FeederIntervalMs < 0 {
		return fmt.Errorf("invalid feeder interval %dms", st.FeederIntervalMs)
	}
	return nil
}

func (s *SettingsService) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &s.settings); err != nil {
		slog.Warn("Ignoring malformed settings file", "path", s.filePath, "error", err)
	}
}

// applyEnv overlays values from the .env file beside the settings file.
func (s *SettingsService) applyEnv() {
	env, err := godotenv.Read(filepath.Join(s.dir(), ".env"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read .env", "error", err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v := env[envFeederURL]; v != "" {
		s.settings.FeederURL = v
	}
	if v := env[envFeederToken]; v != "" {
		s.settings.FeederToken = v
	}
	if v := env[envLogLevel]; v != "" {
		s.settings.LogLevel = v
	}
	if v := env[envXPlanePort]; v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			slog.Warn("Ignoring invalid X-Plane port override", "value", v)
		} else {
			s.settings.XPlanePort = port
		}
	}
}

func (s *SettingsService) save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0o644)
}
