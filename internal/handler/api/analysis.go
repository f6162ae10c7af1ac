package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FxBias/internal/domain/models"
	"FxBias/internal/service/ratelimit"
	"FxBias/internal/usecase"
	xhttp "FxBias/pkg/http"
	"FxBias/pkg/http/middleware"
	xlogger "FxBias/pkg/logger"
)

const (
	msgJobStarted      = "Analysis job started."
	msgJobRunning      = "Analysis job is already running."
	msgNoAnalysis      = "No analysis data found."
	msgLatestFailed    = "Failed to fetch latest analysis."
	msgHistoryFailed   = "Failed to fetch historical data."
	msgOverrideLogged  = "Override logged successfully."
	msgOverrideFailed  = "Failed to log override."
	msgTooManyLaunches = "Too many launch requests, try again later."
)

// JobRunner is the job controller as seen from HTTP.
type JobRunner interface {
	Launch(ctx context.Context, currencies []string) (*models.LaunchResult, error)
	Status() models.JobStatus
}

type Option func(*AnalysisHandler)

// WithCronSecret protects the launch routes with a bearer token.
func WithCronSecret(secret string) Option {
	return func(h *AnalysisHandler) { h.secret = secret }
}

// WithLaunchLimiter throttles launches per client IP.
func WithLaunchLimiter(l *ratelimit.Limiter) Option {
	return func(h *AnalysisHandler) { h.limiter = l }
}

func WithStatusInterval(d time.Duration) Option {
	return func(h *AnalysisHandler) { h.statusInterval = d }
}

// WithAllowOrigins restricts which origins may open the status stream. Empty allows any.
func WithAllowOrigins(origins []string) Option {
	return func(h *AnalysisHandler) { h.origins = origins }
}

type AnalysisHandler struct {
	logger *xlogger.Logger
	jobs   JobRunner
	query  *usecase.AnalysisQuery
	ledger *usecase.OverrideLedger

	secret         string
	limiter        *ratelimit.Limiter
	statusInterval time.Duration
	origins        []string
	upgrader       websocket.Upgrader
}

var _ xhttp.Handler = (*AnalysisHandler)(nil)

func NewAnalysisHandler(
	logger *xlogger.Logger,
	jobs JobRunner,
	query *usecase.AnalysisQuery,
	ledger *usecase.OverrideLedger,
	opts ...Option,
) *AnalysisHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	h := &AnalysisHandler{
		logger:         logger,
		jobs:           jobs,
		query:          query,
		ledger:         ledger,
		statusInterval: time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	launch := []echo.MiddlewareFunc{middleware.BearerSecret(h.secret), h.throttle}
	e.GET("/analyze", h.Launch, launch...)
	e.POST("/analyze", h.Launch, launch...)
	e.GET("/analyze/status", h.Status)
	e.GET("/analyze/status/ws", h.StatusStream)
	e.GET("/analyze/latest", h.Latest)
	e.GET("/analyze/historical", h.Historical)
	e.POST("/override", h.Override)
}

func (h *AnalysisHandler) Launch(c echo.Context) error {
	req := &models.LaunchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.jobs.Launch(c.Request().Context(), req.Currencies)
	if err != nil {
		var conflict *models.JobConflictError
		switch {
		case errors.As(err, &conflict):
			return xhttp.AppErrorResponse(c, xhttp.ConflictError(msgJobRunning).
				WithParam("startedAt", conflict.StartedAt).
				WithError(err))
		case errors.Is(err, models.ErrUnknownCurrency):
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("currencies", err.Error()))
		}
		h.logger.Error("launch usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.AcceptedResponse(c, msgJobStarted, res)
}

func (h *AnalysisHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.jobs.Status())
}

// StatusStream pushes the job status over a WebSocket every statusInterval
// until the client goes away.
func (h *AnalysisHandler) StatusStream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("status stream upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("status stream read error", xlogger.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.statusInterval)
	defer ticker.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(h.jobs.Status()); err != nil {
			return nil
		}
		select {
		case <-gone:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (h *AnalysisHandler) Latest(c echo.Context) error {
	snap, err := h.query.Latest(c.Request().Context())
	if errors.Is(err, models.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(msgNoAnalysis))
	}
	if err != nil {
		h.logger.Error("latest usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError(msgLatestFailed).WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, snap.Data)
}

type historyEntry struct {
	Date string                             `json:"date"`
	Data map[string]models.CurrencyAnalysis `json:"data"`
}

func (h *AnalysisHandler) Historical(c echo.Context) error {
	from, ok := xhttp.DateParam(c, "from")
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from", "from must be a date (YYYY-MM-DD)"))
	}
	to, ok := xhttp.DateParam(c, "to")
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("to", "to must be a date (YYYY-MM-DD)"))
	}

	snaps, err := h.query.History(c.Request().Context(), from, to)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError(msgHistoryFailed).WithError(err))
	}
	out := make([]historyEntry, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, historyEntry{Date: s.Date, Data: s.Data})
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *AnalysisHandler) Override(c echo.Context) error {
	var req models.OverrideRequest
	if err := c.Bind(&req); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("", "Request body must be a JSON object."))
	}

	rec, err := h.ledger.Record(c.Request().Context(), req)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(verr.Field, verr.Message))
		}
		h.logger.Error("override usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError(msgOverrideFailed).WithError(err))
	}
	return xhttp.CreatedResponse(c, msgOverrideLogged, rec)
}

func (h *AnalysisHandler) throttle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter == nil {
			return next(c)
		}
		h.limiter.Prune(time.Hour)
		if !h.limiter.Allow(c.RealIP()) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError(msgTooManyLaunches))
		}
		return next(c)
	}
}

func (h *AnalysisHandler) checkOrigin(r *http.Request) bool {
	if len(h.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.origins {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}
