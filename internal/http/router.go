package http

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RouterConfig carries the handlers mounted by NewRouter. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	Owners     *OwnerHandler
	Schedule   *ScheduleHandler
	Attendance *AttendanceHandler
	Tasks      *TaskHandler
	Focus      *FocusHandler
	LiveStatus *StatusHandler
	Verifier   TokenVerifier
	Logger     *slog.Logger
}

// NewRouter builds the echo instance serving the /v1 API.
func NewRouter(cfg RouterConfig) *echo.Echo {
	logger := defaultLogger(cfg.Logger)
	validate := newRequestValidator()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate
	e.HTTPErrorHandler = newErrorHandler(validate, logger)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())

	v1 := e.Group("/v1")
	if cfg.Owners != nil {
		v1.POST("/owners", cfg.Owners.Register)
		v1.POST("/sessions", cfg.Owners.Login)
	}

	if cfg.Verifier == nil {
		logger.Warn("no token verifier configured; authenticated routes are disabled")
		return e
	}
	authed := v1.Group("", RequireBearer(cfg.Verifier))

	if cfg.Owners != nil {
		authed.GET("/owners/me", cfg.Owners.Me)
		authed.PUT("/owners/me", cfg.Owners.UpdateMe)
	}
	if h := cfg.Schedule; h != nil {
		authed.GET("/schedule", h.List)
		authed.POST("/schedule", h.Create)
		authed.POST("/schedule/import", h.Import)
		authed.GET("/schedule/:id", h.Get)
		authed.PUT("/schedule/:id", h.Update)
		authed.DELETE("/schedule/:id", h.Delete)
	}
	if h := cfg.Attendance; h != nil {
		authed.POST("/attendance", h.Mark)
		authed.GET("/attendance", h.History)
		authed.GET("/attendance/summary", h.Summary)
		authed.GET("/attendance/sheet", h.Sheet)
	}
	if h := cfg.Tasks; h != nil {
		authed.GET("/tasks", h.List)
		authed.POST("/tasks", h.Create)
		authed.POST("/tasks/sync", h.Sync)
		authed.GET("/tasks/:id", h.Get)
		authed.PUT("/tasks/:id", h.Update)
		authed.DELETE("/tasks/:id", h.Delete)
	}
	if h := cfg.Focus; h != nil {
		authed.POST("/focus/sessions", h.Record)
		authed.GET("/focus/sessions", h.List)
		authed.GET("/focus/today", h.Today)
	}
	if h := cfg.LiveStatus; h != nil {
		authed.GET("/live-status", h.Get)
	}
	return e
}
