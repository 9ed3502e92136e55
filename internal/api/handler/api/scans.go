package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/albionflip/internal/api/job"
	"github.com/newthinker/albionflip/internal/api/response"
	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/matcher"
	"github.com/newthinker/albionflip/internal/metrics"
	"github.com/newthinker/albionflip/internal/pipeline"
)

const (
	scanTimeout = 15 * time.Minute
	jobTypeScan = "scan"
)

// Runner executes one scan
type Runner interface {
	Run(ctx context.Context, req pipeline.Request, progress pipeline.ProgressFunc) (*pipeline.Result, error)
}

// RunnerFactory returns the runner for a region
type RunnerFactory func(region core.Region) Runner

// ScanRequest is the request body for starting a scan. Omitted fields fall
// back to the server configuration.
type ScanRequest struct {
	Region           string   `json:"region,omitempty"`
	Tiers            []int    `json:"tiers,omitempty"`
	Cities           []string `json:"cities,omitempty"`
	MarketAgeMinutes *int     `json:"marketAgeMinutes,omitempty"`
	Premium          *bool    `json:"premium,omitempty"`
	BestOnly         *bool    `json:"bestOnly,omitempty"`
	BlackMarket      *bool    `json:"blackMarket,omitempty"`
	MinProfit        *int64   `json:"minProfit,omitempty"`
	IncludeRisk      *bool    `json:"includeRisk,omitempty"`
}

// ScanDefaults is the server-side scan configuration requests start from
type ScanDefaults struct {
	Region  core.Region
	Request pipeline.Request
}

// ScanHandler handles scan API requests.
type ScanHandler struct {
	jobStore *job.Store
	runners  RunnerFactory
	defaults ScanDefaults
	logger   *zap.Logger
	metrics  *metrics.Registry
	baseCtx  context.Context
	timeout  time.Duration
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(jobStore *job.Store, runners RunnerFactory, defaults ScanDefaults, logger *zap.Logger, reg *metrics.Registry) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanHandler{
		jobStore: jobStore,
		runners:  runners,
		defaults: defaults,
		logger:   logger,
		metrics:  reg,
		baseCtx:  context.Background(),
		timeout:  scanTimeout,
	}
}

// Create starts a new scan job.
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	region, req, err := h.build(body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	runner := h.runners(region)
	if runner == nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("no price provider for region %s", region)))
		return
	}

	j := h.jobStore.Create(jobTypeScan)
	h.updateActive()

	// Run scan in background
	go h.runScan(j.ID, runner, req)

	h.logger.Info("scan job created", zap.String("job_id", j.ID), zap.String("region", string(region)))
	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// build applies request overrides to the configured defaults
func (h *ScanHandler) build(body ScanRequest) (core.Region, pipeline.Request, error) {
	region := h.defaults.Region
	if body.Region != "" {
		region = core.ParseRegion(body.Region)
	}

	req := h.defaults.Request
	mc := req.Matcher

	if len(body.Tiers) > 0 {
		for _, tier := range body.Tiers {
			if tier < 1 || tier > 8 {
				return "", req, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("tier must be between 1 and 8, got %d", tier))
			}
		}
		req.Tiers = body.Tiers
	}
	if len(body.Cities) > 0 {
		cities := make([]core.City, len(body.Cities))
		for i, c := range body.Cities {
			city := core.City(c)
			if !city.IsKnown() {
				return "", req, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown city %q", c))
			}
			cities[i] = city
		}
		req.Cities = cities
		mc.AllowedCities = cities
	}
	if body.MarketAgeMinutes != nil {
		if *body.MarketAgeMinutes <= 0 {
			return "", req, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("marketAgeMinutes must be positive"))
		}
		mc.MaxAgeMinutes = *body.MarketAgeMinutes
	}
	if body.Premium != nil {
		mc.TaxModifier = matcher.TaxModifier(*body.Premium)
	}
	if body.BestOnly != nil {
		req.BestOnly = *body.BestOnly
	}
	if body.BlackMarket != nil && *body.BlackMarket {
		mc.Destination = matcher.DestinationSink
		mc.SinkCity = core.CityBlackMarket
	}
	if mc.Destination == matcher.DestinationSink {
		sinkCity := mc.SinkCity
		if sinkCity == "" {
			sinkCity = core.CityBlackMarket
		}
		if !containsCity(mc.AllowedCities, sinkCity) {
			return "", req, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("sink matching requires %q in cities", sinkCity))
		}
	}
	if body.MinProfit != nil {
		if *body.MinProfit < 0 {
			return "", req, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("minProfit cannot be negative"))
		}
		mc.MinProfit = *body.MinProfit
	}
	if body.IncludeRisk != nil {
		mc.IncludeRisk = *body.IncludeRisk
	}

	req.Matcher = mc
	return region, req, nil
}

// runScan executes the scan and updates job status.
func (h *ScanHandler) runScan(jobID string, runner Runner, req pipeline.Request) {
	// Mark as running
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(h.baseCtx, h.timeout)
	defer cancel()

	result, err := runner.Run(ctx, req, func(p pipeline.Progress) {
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Progress = int(p.Percent)
			j.Detail = p
		})
	})
	defer h.updateActive()

	if err != nil {
		h.logger.Warn("scan job failed", zap.String("job_id", jobID), zap.Error(err))
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

// GetStatus returns the status of a scan job.
func (h *ScanHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, statusBody(j))
}

// List returns every live scan job without results.
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobStore.List()
	out := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		body := statusBody(&jobs[i])
		delete(body, "result")
		out = append(out, body)
	}
	response.JSON(w, http.StatusOK, out)
}

func statusBody(j *job.Job) map[string]any {
	resp := map[string]any{
		"job_id":     j.ID,
		"status":     j.Status,
		"progress":   j.Progress,
		"created_at": j.CreatedAt,
		"updated_at": j.UpdatedAt,
	}
	if j.Detail != nil {
		resp["detail"] = j.Detail
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}
	return resp
}

func (h *ScanHandler) updateActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(h.jobStore.Active())
	}
}

func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrCollectorTimeout, err)
	}
	return core.WrapError(core.ErrCollectorFailed, err)
}

func containsCity(cities []core.City, city core.City) bool {
	for _, c := range cities {
		if c == city {
			return true
		}
	}
	return false
}
