package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/browser"

	"simbridge/internal/telemetry"
)

const (
	simbriefFetchURL    = "https://www.simbrief.com/api/xml.fetcher.php"
	simbriefDispatchURL = "https://dispatch.simbrief.com/options/new"
	simbriefTimeout     = 10 * time.Second
)

var errUsernameRequired = errors.New("SimBrief username is required")

// SimbriefPlan is the subset of the latest OFP the app uses.
type SimbriefPlan struct {
	Username      string `json:"username"`
	Callsign      string `json:"callsign,omitempty"`
	AircraftICAO  string `json:"aircraft_icao,omitempty"`
	DepartureICAO string `json:"departure_icao,omitempty"`
	ArrivalICAO   string `json:"arrival_icao,omitempty"`
	Route         string `json:"route,omitempty"`
	OFPID         string `json:"ofp_id,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

type simbriefResponse struct {
	General struct {
		Route   string `json:"route"`
		OFPID   string `json:"ofp_id"`
		Created string `json:"created"`
	} `json:"general"`
	Aircraft struct {
		ICAOCode string `json:"icao_code"`
	} `json:"aircraft"`
	Origin struct {
		ICAOCode string `json:"icao_code"`
	} `json:"origin"`
	Destination struct {
		ICAOCode string `json:"icao_code"`
	} `json:"destination"`
	ATC struct {
		Callsign string `json:"callsign"`
	} `json:"atc"`
}

// FlightPlanService looks up plans and stores them for telemetry enrichment.
type FlightPlanService struct {
	sim         *SimulatorService
	client      *http.Client
	baseURL     string
	openBrowser func(string) error
}

func NewFlightPlanService(sim *SimulatorService) *FlightPlanService {
	return &FlightPlanService{
		sim:         sim,
		client:      &http.Client{Timeout: simbriefTimeout},
		baseURL:     simbriefFetchURL,
		openBrowser: browser.OpenURL,
	}
}

// FetchSimbriefPlan downloads the latest OFP for username and makes it the
// active flight plan.
func (f *FlightPlanService) FetchSimbriefPlan(username string) (*SimbriefPlan, error) {
	plan, err := f.fetch(context.Background(), username)
	if err != nil {
		return nil, err
	}

	f.sim.SetFlightPlan(&telemetry.FlightPlan{
		Callsign:      plan.Callsign,
		AircraftICAO:  plan.AircraftICAO,
		DepartureICAO: plan.DepartureICAO,
		ArrivalICAO:   plan.ArrivalICAO,
		Route:         plan.Route,
		Source:        "simbrief",
	})
	slog.Info("SimBrief plan loaded", "callsign", plan.Callsign, "dep", plan.DepartureICAO, "arr", plan.ArrivalICAO)
	return plan, nil
}

func (f *FlightPlanService) fetch(ctx context.Context, username string) (*SimbriefPlan, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errUsernameRequired
	}

	u := f.baseURL + "?json=1&username=" + url.QueryEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SimBrief request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("SimBrief request failed: HTTP %d", resp.StatusCode)
	}

	var body simbriefResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse SimBrief response: %w", err)
	}

	return &SimbriefPlan{
		Username:      username,
		Callsign:      strings.TrimSpace(body.ATC.Callsign),
		AircraftICAO:  normICAO(body.Aircraft.ICAOCode),
		DepartureICAO: normICAO(body.Origin.ICAOCode),
		ArrivalICAO:   normICAO(body.Destination.ICAOCode),
		Route:         strings.TrimSpace(body.General.Route),
		OFPID:         strings.TrimSpace(body.General.OFPID),
		CreatedAt:     strings.TrimSpace(body.General.Created),
	}, nil
}

func normICAO(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// OpenSimbriefDispatch opens the SimBrief flight planner in the browser.
func (f *FlightPlanService) OpenSimbriefDispatch() error {
	if err := f.openBrowser(simbriefDispatchURL); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}
