package api

import (
	"context"
	"errors"
	"net/http"

	models "DemandCast/internal/domain/models"
	"DemandCast/internal/usecase"
	xhttp "DemandCast/pkg/http"
	xlogger "DemandCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RunService is the orchestrator surface the HTTP layer needs.
type RunService interface {
	Run(ctx context.Context, params models.RunParams) (*models.RunSummary, error)
	Latest(ctx context.Context) (*models.RunSummary, error)
	Health(ctx context.Context) error
}

// RunsHandler exposes forecast runs over HTTP: triggering a run, reading the
// latest run summary and a readiness probe.
type RunsHandler struct {
	logger *xlogger.Logger
	runs   RunService
}

func NewRunsHandler(logger *xlogger.Logger, runs RunService) *RunsHandler {
	return &RunsHandler{logger: logger, runs: runs}
}

func (h *RunsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/runs", h.TriggerRun)
	g.GET("/runs/latest", h.LatestRun)
	e.GET("/healthz", h.Health)
}

// TriggerRun starts a synchronous forecast run. Runs can take minutes; the
// response arrives when the run has been persisted.
func (h *RunsHandler) TriggerRun(c echo.Context) error {
	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	summary, err := h.runs.Run(c.Request().Context(), req.ToParams())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRunInProgress):
			return xhttp.AppErrorResponse(c, xhttp.ConflictError(err.Error()))
		case errors.Is(err, usecase.ErrUnknownModel):
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("forecast run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, summary)
}

// LatestRun returns the summary of the most recent completed run.
func (h *RunsHandler) LatestRun(c echo.Context) error {
	summary, err := h.runs.Latest(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNoRuns) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no completed runs"))
		}
		h.logger.Error("latest run lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, summary)
}

// Health reports readiness of the history source.
func (h *RunsHandler) Health(c echo.Context) error {
	if err := h.runs.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "down"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
