package integrity

import (
	"errors"

	"marker-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/documents", h.HandleDocumentsCheck)
	group.Get("/renderer", h.HandleRendererCheck)
	group.Get("/storage", h.HandleStorageCheck)
}

// HandleIntegrityCheck runs every check that applies to the deployment.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]interface{})

	// Documents
	if missing, err := h.service.CheckDocuments(ctx); err != nil {
		report["documents"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["documents"] = map[string]interface{}{"status": "ok", "missing": missing}
	}

	// Renderer
	if schema, err := h.service.CheckRenderer(); errors.Is(err, ErrNoDatabase) {
		report["renderer"] = map[string]interface{}{"status": "skipped"}
	} else if err != nil {
		report["renderer"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["renderer"] = schema
	}

	// Storage
	if bucket, err := h.service.CheckStorage(ctx); errors.Is(err, ErrNoStorage) {
		report["storage"] = map[string]interface{}{"status": "skipped"}
	} else if err != nil {
		report["storage"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["storage"] = bucket
	}

	return c.JSON(report)
}

// HandleDocumentsCheck lists the missing source documents.
func (h *Handler) HandleDocumentsCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	missing, err := h.service.CheckDocuments(c.UserContext())
	if err != nil {
		l.Error("Document check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(missing) > 0 {
		l.Warn("Missing source documents detected", zap.Strings("missing", missing))
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleRendererCheck reports the marker table schema.
func (h *Handler) HandleRendererCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckRenderer()
	if errors.Is(err, ErrNoDatabase) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Renderer check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleStorageCheck reports the source documents in object storage.
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckStorage(c.UserContext())
	if errors.Is(err, ErrNoStorage) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Storage check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
