package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/container-make/sizer/cloud/db"
	"github.com/container-make/sizer/pkg/batch"
	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/logger"
	"github.com/container-make/sizer/pkg/preset"
	"github.com/container-make/sizer/pkg/recommend"
)

// estimateRequest is the body of POST /api/estimate.
type estimateRequest struct {
	Image       string `json:"image"`
	DurationSec int    `json:"duration_sec"`
	Command     string `json:"command,omitempty"`
}

// bulkRequest is the body of POST /api/bulk.
type bulkRequest struct {
	DurationSec int `json:"duration_sec"`
	Parallel    int `json:"parallel"`
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// startEstimate launches a single-image estimation on a worker goroutine and
// returns its run id. Clients follow along via GET /api/progress.
func (s *Server) startEstimate(c echo.Context) error {
	var req estimateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Image == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "image is required")
	}

	// Check and claim happen in one step so concurrent POSTs cannot both
	// launch a run.
	if !s.tracker.TryStart(1) {
		return echo.NewHTTPError(http.StatusConflict, "an estimation is already running")
	}

	id := uuid.NewString()
	runReq := estimate.Request{
		Image:         req.Image,
		Duration:      time.Duration(req.DurationSec) * time.Second,
		Command:       req.Command,
		PresetCommand: preset.Command(req.Image),
	}

	go s.runSingle(id, runReq)

	return c.JSON(http.StatusAccepted, map[string]string{"id": id, "image": req.Image})
}

func (s *Server) runSingle(id string, req estimate.Request) {
	s.tracker.Advance(1, req.Image)

	rep, err := s.estimator.Run(context.Background(), req)

	var record *db.EstimateRecord
	var result batch.Result
	if err != nil {
		record = db.FromFailure(id, req.Image, err)
		result = batch.Result{Image: req.Image, Error: err.Error()}
		s.tracker.Fail(err.Error())
	} else {
		record = db.FromReport(id, rep)
		result = batch.Result{Image: req.Image, Report: rep}
		s.tracker.Complete()
	}

	if dbErr := s.db.SaveEstimate(record); dbErr != nil {
		logger.Warn("failed to persist estimate %s: %v", id, dbErr)
	}

	s.mu.Lock()
	s.lastResults = []batch.Result{result}
	s.mu.Unlock()
}

// startBulk launches a batch run over the preset image table.
func (s *Server) startBulk(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	images, err := preset.Load()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !s.tracker.TryStart(len(images)) {
		return echo.NewHTTPError(http.StatusConflict, "an estimation is already running")
	}

	runner := batch.NewRunner(s.estimator, s.tracker)
	runner.Duration = time.Duration(req.DurationSec) * time.Second
	runner.Parallel = req.Parallel

	go func() {
		results := runner.Run(context.Background(), images)

		for _, res := range results {
			var record *db.EstimateRecord
			if res.Report != nil {
				record = db.FromReport(uuid.NewString(), res.Report)
			} else {
				record = &db.EstimateRecord{ID: uuid.NewString(), Image: res.Image, Error: res.Error}
			}
			if err := s.db.SaveEstimate(record); err != nil {
				logger.Warn("failed to persist bulk result for %s: %v", res.Image, err)
			}
		}

		s.mu.Lock()
		s.lastResults = results
		s.mu.Unlock()
	}()

	return c.JSON(http.StatusAccepted, map[string]int{"total": len(images)})
}

// getProgress returns the current tracker state; clients poll this at their
// own cadence, typically once per second.
func (s *Server) getProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tracker.Snapshot())
}

// getResults returns the results of the most recent run.
func (s *Server) getResults(c echo.Context) error {
	s.mu.RLock()
	results := s.lastResults
	s.mu.RUnlock()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"progress": s.tracker.Snapshot(),
		"results":  results,
	})
}

// getHistory returns persisted estimations, optionally filtered by image.
func (s *Server) getHistory(c echo.Context) error {
	image := c.QueryParam("image")

	var (
		records []db.EstimateRecord
		err     error
	)
	if image != "" {
		records, err = s.db.EstimatesForImage(image, 50)
	} else {
		records, err = s.db.RecentEstimates(50)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, records)
}

// getCatalog returns the instance mapping table.
func (s *Server) getCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, recommend.Catalog())
}
