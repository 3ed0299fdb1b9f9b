package api

import (
	"errors"
	"time"

	models "TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/internal/strategy"
	"TradePilot/internal/usecase"
	xhttp "TradePilot/pkg/http"
	xlogger "TradePilot/pkg/logger"
	xutil "TradePilot/pkg/util"

	"github.com/labstack/echo/v4"
)

// EngineEchoHandler exposes the admin API for account loops, engine
// settings and trade history.
type EngineEchoHandler struct {
	logger   *xlogger.Logger
	engine   *usecase.Engine
	settings domrepo.SettingsStore
	trades   domrepo.TradeStore
}

func NewEngineEchoHandler(
	logger *xlogger.Logger,
	engine *usecase.Engine,
	settings domrepo.SettingsStore,
	trades domrepo.TradeStore,
) *EngineEchoHandler {
	return &EngineEchoHandler{logger: logger, engine: engine, settings: settings, trades: trades}
}

func (h *EngineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/accounts/:id/start", h.StartAccount)
	g.POST("/accounts/:id/stop", h.StopAccount)
	g.GET("/accounts/:id/status", h.AccountStatus)
	g.GET("/accounts/:id/pairs", h.AccountPairs)
	g.GET("/accounts/:id/config", h.GetAccountConfig)
	g.PUT("/accounts/:id/config", h.PutAccountConfig)
	g.GET("/engine/threshold", h.GetThreshold)
	g.PUT("/engine/threshold", h.PutThreshold)
	g.GET("/trades", h.ListTrades)
}

func (h *EngineEchoHandler) StartAccount(c echo.Context) error {
	accountID := c.Param("id")
	started, err := h.engine.Start(c.Request().Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidConfiguration) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("account %s: %v", accountID, err))
		}
		h.logger.Error("account start", xlogger.String("account", accountID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"account_id": accountID,
		"started":    started,
		"running":    true,
	})
}

func (h *EngineEchoHandler) StopAccount(c echo.Context) error {
	accountID := c.Param("id")
	if err := h.engine.Stop(c.Request().Context(), accountID); err != nil {
		h.logger.Error("account stop", xlogger.String("account", accountID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"account_id": accountID,
		"running":    false,
	})
}

func (h *EngineEchoHandler) AccountStatus(c echo.Context) error {
	accountID := c.Param("id")
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"account_id": accountID,
		"running":    h.engine.IsRunning(accountID),
	})
}

func (h *EngineEchoHandler) AccountPairs(c echo.Context) error {
	accountID := c.Param("id")
	pairs, err := h.engine.ListActivePairs(c.Request().Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidConfiguration) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("account %s", accountID))
		}
		h.logger.Error("account pairs", xlogger.String("account", accountID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"account_id": accountID,
		"pairs":      pairs,
	})
}

func (h *EngineEchoHandler) GetAccountConfig(c echo.Context) error {
	accountID := c.Param("id")
	cfg, err := h.settings.GetAccountConfig(c.Request().Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidConfiguration) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("account %s", accountID))
		}
		h.logger.Error("account config read", xlogger.String("account", accountID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, cfg)
}

// PutAccountConfig patches existing settings; when the account has no
// settings yet and the body is complete, it creates them instead.
func (h *EngineEchoHandler) PutAccountConfig(c echo.Context) error {
	accountID := c.Param("id")
	req := &models.AccountConfigUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Strategy != nil {
		// Stored configs carry the canonical spelling.
		canonical := strategy.Normalize(*req.Strategy)
		req.Strategy = &canonical
	}

	ctx := c.Request().Context()
	cfg, err := h.settings.UpdateAccountConfig(ctx, accountID, req.Patch())
	if err != nil {
		if errors.Is(err, models.ErrInvalidConfiguration) && req.Complete() {
			cfg = req.Patch().Apply(models.AccountConfig{AccountID: accountID})
			if err := h.settings.SaveAccountConfig(ctx, cfg); err != nil {
				h.logger.Error("account config create", xlogger.String("account", accountID), xlogger.Error(err))
				return xhttp.AppErrorResponse(c, err)
			}
			return xhttp.CreatedResponse(c, cfg)
		}
		if errors.Is(err, models.ErrInvalidConfiguration) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("account %s", accountID))
		}
		h.logger.Error("account config update", xlogger.String("account", accountID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *EngineEchoHandler) GetThreshold(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"threshold": h.engine.GetConfidenceThreshold(),
	})
}

func (h *EngineEchoHandler) PutThreshold(c echo.Context) error {
	req := &models.ThresholdUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.engine.SetConfidenceThreshold(req.Threshold); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"threshold": req.Threshold,
	})
}

func (h *EngineEchoHandler) ListTrades(c echo.Context) error {
	req := &models.TradesQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)
	from, to = xutil.AlignFromTo(from, to, "1m")
	limit := req.Limit
	if limit == 0 {
		limit = 100
	}

	trades, err := h.trades.QueryTrades(c.Request().Context(), req.Symbol, from, to, limit)
	if err != nil {
		h.logger.Error("trades query", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}
