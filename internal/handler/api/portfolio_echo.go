package api

import (
	"net/http"
	"strconv"

	drepo "GrowthSim/internal/domain/repository"
	"GrowthSim/internal/handler/ws"
	"GrowthSim/internal/usecase"
	xhttp "GrowthSim/pkg/http"
	xlogger "GrowthSim/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultHistoryLimit = 100

// PortfolioHandler serves the current portfolio, its history, and the
// per-instrument statistics over HTTP.
type PortfolioHandler struct {
	logger *xlogger.Logger
	sim    *usecase.Simulator
	cache  drepo.ReportCache
	store  drepo.SnapshotStore
	hub    *ws.Hub
}

func NewPortfolioHandler(logger *xlogger.Logger, sim *usecase.Simulator, cache drepo.ReportCache, store drepo.SnapshotStore, hub *ws.Hub) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, sim: sim, cache: cache, store: store, hub: hub}
}

func (h *PortfolioHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/portfolio", h.Portfolio)
	g.GET("/portfolio/history", h.History)
	g.GET("/instruments", h.Instruments)
	g.GET("/instruments/:symbol", h.Instrument)

	e.GET("/healthz", h.Health)
	if h.hub != nil {
		e.GET("/ws", h.hub.Handle)
	}
}

// Portfolio returns the latest rebalance snapshot, preferring the cache and
// falling back to the simulator's own state.
func (h *PortfolioHandler) Portfolio(c echo.Context) error {
	if h.cache != nil {
		if snap, ok := h.cache.Latest(c.Request().Context()); ok {
			return xhttp.SuccessResponse(c, snap)
		}
	}
	if snap, ok := h.sim.LatestSnapshot(); ok {
		return xhttp.SuccessResponse(c, snap)
	}
	return xhttp.NotFoundResponse(c, "no interval closed yet")
}

func (h *PortfolioHandler) History(c echo.Context) error {
	if h.store == nil {
		return xhttp.NotFoundResponse(c, "snapshot history not configured")
	}
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return xhttp.BadRequestResponse(c, "limit must be a positive integer")
		}
		limit = n
	}

	snaps, err := h.store.Snapshots(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("snapshot history query", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, snaps, int64(len(snaps)))
}

func (h *PortfolioHandler) Instruments(c echo.Context) error {
	reports := h.sim.InstrumentReports()
	return xhttp.ListResponse(c, reports, int64(len(reports)))
}

func (h *PortfolioHandler) Instrument(c echo.Context) error {
	symbol := c.Param("symbol")
	r, ok := h.sim.InstrumentReport(symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, "unknown instrument")
	}
	return xhttp.SuccessResponse(c, r)
}

func (h *PortfolioHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			status["store"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
		}
		status["store"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}
