package markers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the markers feature. metrics may be nil.
func NewFeature(service *Service, metrics http.Handler) *Feature {
	return &Feature{service: service, handler: NewHandler(service, metrics)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "markers"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.service != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
