package markers

import (
	"errors"
	"net/http"

	"marker-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for marker commands.
type Handler struct {
	service *Service
	metrics http.Handler
}

// NewHandler creates a new HTTP handler. metrics may be nil.
func NewHandler(service *Service, metrics http.Handler) *Handler {
	return &Handler{service: service, metrics: metrics}
}

// RegisterRoutes registers the marker routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/markers")
	group.Get("/", h.HandleStatus)
	group.Post("/reload", h.HandleReload)
	group.Post("/toggle/:type", h.HandleToggle)

	if h.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.metrics))
	}
}

// HandleStatus returns the engine state and the active markers.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleReload re-reads the configuration and refreshes the markers.
func (h *Handler) HandleReload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	msg, err := h.service.Reload(c.UserContext())
	if err != nil {
		l.Error("Configuration reload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": msg,
		})
	}

	l.Info("Configuration reloaded")
	return c.JSON(fiber.Map{
		"status":  "ok",
		"message": msg,
	})
}

// HandleToggle flips one marker type on or off.
func (h *Handler) HandleToggle(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	res, err := h.service.Toggle(c.UserContext(), c.Params("type"))
	if errors.Is(err, ErrInvalidMarkerType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": InvalidTypeMessage,
		})
	}
	if err != nil {
		l.Error("Marker toggle failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	l.Info("Marker type toggled",
		zap.String("marker", res.Marker),
		zap.Bool("enabled", res.Enabled),
	)
	return c.JSON(fiber.Map{
		"status":  "ok",
		"marker":  res.Marker,
		"enabled": res.Enabled,
		"message": res.Message,
	})
}
