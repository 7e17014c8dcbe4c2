package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"geopresence/internal/apperr"
	"geopresence/internal/attendance"
	"geopresence/internal/auth"
	"geopresence/internal/event"
	"geopresence/internal/i18n"
	"geopresence/internal/metrics"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	events   *event.Directory
	checkins *attendance.Service
	issuer   *auth.Issuer
	tr       *i18n.Translator
	metrics  *metrics.Metrics
	checks   map[string]HealthCheck
}

func New(events *event.Directory, checkins *attendance.Service, issuer *auth.Issuer, tr *i18n.Translator, m *metrics.Metrics, checks map[string]HealthCheck) *Handler {
	return &Handler{
		events:   events,
		checkins: checkins,
		issuer:   issuer,
		tr:       tr,
		metrics:  m,
		checks:   checks,
	}
}

// Register mounts the API on r. admin guards the administrator routes.
func (h *Handler) Register(r gin.IRouter, admin gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/admin/login", h.Login)
		api.POST("/presencas", h.SubmitAttendance)

		protected := api.Group("", admin)
		protected.GET("/eventos", h.ListEvents)
		protected.POST("/eventos", h.CreateEvent)
		protected.PUT("/eventos", h.UpdateEvent)
		protected.DELETE("/eventos", h.DeleteEvent)
		protected.GET("/presencas", h.ListAttendance)
		protected.GET("/presencas/export", h.ExportAttendance)
	}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		err := check(c.Request.Context())
		body[name] = err == nil
		if err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			slog.WarnContext(c.Request.Context(), "health check failed", "check", name, "err", err)
		}
	}
	c.JSON(status, body)
}

// ---------- Admin session ----------

type loginRequest struct {
	Password string `json:"senha"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		h.fail(c, http.StatusBadRequest, i18n.FormIncomplete, nil)
		return
	}
	tok, err := h.issuer.Login(req.Password)
	if errors.Is(err, auth.ErrWrongPassword) {
		slog.WarnContext(c.Request.Context(), "admin login failed", "ip", c.ClientIP())
		h.fail(c, http.StatusUnauthorized, i18n.WrongPassword, nil)
		return
	}
	if err != nil {
		h.internal(c, "issue admin token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok.Value, "expires_at": tok.ExpiresAt.Unix()})
}

// Unauthorized writes the localized 401 used by the admin middleware.
func (h *Handler) Unauthorized(c *gin.Context) {
	h.fail(c, http.StatusUnauthorized, i18n.Unauthorized, nil)
}

// TooManyRequests writes the localized 429 used by the rate limiter.
func (h *Handler) TooManyRequests(c *gin.Context) {
	if h.metrics != nil {
		h.metrics.IncrementRateLimited()
	}
	h.fail(c, http.StatusTooManyRequests, i18n.RateLimited, nil)
}

// ---------- helpers ----------

func (h *Handler) locale(c *gin.Context) string {
	return c.GetHeader("Accept-Language")
}

func (h *Handler) message(c *gin.Context, key string, data map[string]any) string {
	return h.tr.T(h.locale(c), key, data)
}

func (h *Handler) fail(c *gin.Context, status int, key string, data map[string]any) {
	c.AbortWithStatusJSON(status, gin.H{"error": h.message(c, key, data)})
}

// internal logs err and answers with the generic technical message.
func (h *Handler) internal(c *gin.Context, op string, err error) {
	slog.ErrorContext(c.Request.Context(), op, "err", err, "path", c.FullPath())
	h.fail(c, http.StatusInternalServerError, i18n.TechnicalError, nil)
}

// fieldMessage picks the message for an input validation failure.
func fieldMessage(fe *apperr.FieldError, incomplete string) string {
	switch fe.Code {
	case apperr.CodeDigits:
		return i18n.ParticipantIDDigits
	case apperr.CodeRange:
		if fe.Field == "latitude" || fe.Field == "longitude" {
			return i18n.CoordinatesRange
		}
	case apperr.CodeFormat:
		if fe.Field == "data" {
			return i18n.InvalidDate
		}
	}
	return incomplete
}

func asFieldError(err error) (*apperr.FieldError, bool) {
	var fe *apperr.FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
