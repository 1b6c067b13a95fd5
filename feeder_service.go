package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"simbridge/internal/simulator"
	"simbridge/internal/telemetry"
)

const (
	feederTimeout         = 2 * time.Second
	defaultFeederInterval = 500 * time.Millisecond
)

type FeederStats struct {
	Enabled   bool   `json:"enabled"`
	Posted    int    `json:"posted"`
	Failed    int    `json:"failed"`
	LastError string `json:"lastError,omitempty"`
}

type feederPayload struct {
	telemetry.Snapshot
	Simulator   string                `json:"simulator"`
	FlightPhase telemetry.FlightPhase `json:"flight_phase"`
}

// FeederService forwards the newest snapshot to a telemetry API, at most
// once per configured interval. Older snapshots are replaced, never queued.
type FeederService struct {
	client  *http.Client
	limiter *rate.Limiter
	kind    func() (simulator.Kind, bool)
	latest  chan telemetry.Snapshot

	mu      sync.Mutex
	enabled bool
	baseURL string
	token   string
	stats   FeederStats

	cancel context.CancelFunc
	done   chan struct{}
}

func NewFeederService() *FeederService {
	ctx, cancel := context.WithCancel(context.Background())
	f := &FeederService{
		client:  &http.Client{Timeout: feederTimeout},
		limiter: rate.NewLimiter(rate.Every(defaultFeederInterval), 1),
		kind:    func() (simulator.Kind, bool) { return "", false },
		latest:  make(chan telemetry.Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go f.run(ctx)
	return f
}

func (f *FeederService) attach(sim *SimulatorService) {
	f.kind = sim.currentKind
}

func (f *FeederService) applySettings(st Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.enabled = st.FeederEnabled && st.FeederURL != ""
	f.baseURL = strings.TrimRight(st.FeederURL, "/")
	f.token = st.FeederToken
	f.stats.Enabled = f.enabled

	interval := time.Duration(st.FeederIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = defaultFeederInterval
	}
	f.limiter.SetLimit(rate.Every(interval))
}

// Offer hands the feeder a snapshot. It never blocks.
func (f *FeederService) Offer(s telemetry.Snapshot) {
	f.mu.Lock()
	enabled := f.enabled
	f.mu.Unlock()
	if !enabled {
		return
	}

	for {
		select {
		case f.latest <- s:
			return
		default:
		}
		select {
		case <-f.latest:
		default:
		}
	}
}

func (f *FeederService) GetFeederStats() FeederStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *FeederService) run(ctx context.Context) {
	defer close(f.done)

	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case s := <-f.latest:
			f.post(ctx, s)
		}
	}
}

func (f *FeederService) post(ctx context.Context, s telemetry.Snapshot) {
	f.mu.Lock()
	url, token := f.baseURL+"/telemetry", f.token
	f.mu.Unlock()

	err := f.send(ctx, url, token, s)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.stats.Failed++
		f.stats.LastError = err.Error()
		slog.Warn("Telemetry post failed", "error", err)
		return
	}
	f.stats.Posted++
	f.stats.LastError = ""
	if f.stats.Posted%20 == 0 {
		slog.Info("Telemetry posted", "count", f.stats.Posted, "alt", int(s.Altitude), "gs", int(s.GroundSpeed), "hdg", int(s.Heading))
	}
}

func (f *FeederService) send(ctx context.Context, url, token string, s telemetry.Snapshot) error {
	kind, _ := f.kind()
	body, err := json.Marshal(feederPayload{
		Snapshot:    s,
		Simulator:   string(kind),
		FlightPhase: telemetry.Phase(s),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Feeder-Token", token)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post telemetry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// ServiceShutdown stops the posting loop.
func (f *FeederService) ServiceShutdown() error {
	f.cancel()
	<-f.done
	return nil
}
