package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/pkg/browser"
)

var Version = "dev"

const (
	releaseSlug  = "simbridge/simbridge"
	releaseAsset = "simbridge-windows-amd64.exe$"
)

type UpdateInfo struct {
	CurrentVersion  string `json:"currentVersion"`
	LatestVersion   string `json:"latestVersion"`
	UpdateAvailable bool   `json:"updateAvailable"`
	ReleaseURL      string `json:"releaseURL"`
}

type UpdateService struct {
	mu     sync.Mutex
	latest *selfupdate.Release
}

func (s *UpdateService) GetCurrentVersion() string {
	return Version
}

// currentVersion parses Version; dev and unparseable builds compare as 0.0.0.
func currentVersion() *semver.Version {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return semver.New(0, 0, 0, "", "")
	}
	return v
}

func (s *UpdateService) isPrerelease() bool {
	return currentVersion().Prerelease() != ""
}

func (s *UpdateService) isStableRelease() bool {
	_, err := semver.NewVersion(Version)
	return err == nil && !s.isPrerelease()
}

func (s *UpdateService) comparableVersion() string {
	return currentVersion().String()
}

func (s *UpdateService) newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("create github source: %w", err)
	}

	cfg := selfupdate.Config{
		Source:  source,
		Filters: []string{releaseAsset},
		// Stable builds only see stable releases.
		Prerelease: !s.isStableRelease(),
	}

	updater, err := selfupdate.NewUpdater(cfg)
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return updater, nil
}

func (s *UpdateService) CheckForUpdate() (*UpdateInfo, error) {
	updater, err := s.newUpdater()
	if err != nil {
		return nil, err
	}

	latest, found, err := updater.DetectLatest(context.Background(), selfupdate.ParseSlug(releaseSlug))
	if err != nil {
		return nil, fmt.Errorf("detect latest version: %w", err)
	}

	info := &UpdateInfo{CurrentVersion: Version}
	if found {
		info.LatestVersion = latest.Version()
		info.ReleaseURL = latest.URL
		if latest.GreaterThan(s.comparableVersion()) {
			info.UpdateAvailable = true
			s.mu.Lock()
			s.latest = latest
			s.mu.Unlock()
		}
	}

	slog.Info("Update check complete", "current", Version, "latest", info.LatestVersion, "available", info.UpdateAvailable)
	return info, nil
}

func (s *UpdateService) ApplyUpdate() error {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest == nil {
		return errors.New("no update available, run CheckForUpdate first")
	}

	updater, err := s.newUpdater()
	if err != nil {
		return err
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if err := updater.UpdateTo(context.Background(), latest, exe); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	slog.Info("Update applied", "version", latest.Version())
	return nil
}

// OpenReleasePage opens the release notes for the detected update.
func (s *UpdateService) OpenReleasePage() error {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest == nil || latest.URL == "" {
		return errors.New("no release to open")
	}
	return browser.OpenURL(latest.URL)
}
