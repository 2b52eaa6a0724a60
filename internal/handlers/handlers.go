package handlers

import (
	"context"
	"errors"
	"strconv"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/bundles"
	"fhirfly-backend/internal/chatbot"
	"fhirfly-backend/internal/metrics"
	"fhirfly-backend/internal/middleware"
	"fhirfly-backend/internal/models"
	"fhirfly-backend/internal/services"
	"fhirfly-backend/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// HealthCheck reports whether the database is reachable.
type HealthCheck func(ctx context.Context) error

// Handler holds the services behind every route.
type Handler struct {
	Catalog     *services.CatalogService
	Terminology *services.TerminologyService
	Problems    *services.ProblemService
	Analytics   *services.AnalyticsService
	Auth        *services.AuthService
	Audit       *services.AuditService
	Chatbot     *chatbot.Client
	Bundles     *bundles.Uploader
	Metrics     *metrics.Collector
	Ping        HealthCheck
	Logger      *zap.Logger
}

func (h *Handler) fail(c *gin.Context, err error) {
	apperrors.Respond(c, h.Logger, err)
}

// bindJSON decodes the body into dst. Validation failures carry the failing
// fields in the error details.
func (h *Handler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badBody(c, err)
		return false
	}
	return true
}

func (h *Handler) badBody(c *gin.Context, err error) {
	appErr := apperrors.NewValidationError("Invalid request body")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		h.fail(c, appErr.WithDetails(validation.FieldErrors(verrs)))
		return
	}
	h.fail(c, appErr.WithCause(err))
}

func (h *Handler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.fail(c, apperrors.NewValidationError("Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.fail(c, apperrors.NewValidationError("Invalid "+name))
		return nil, false
	}
	return &id, true
}

// pageRequest reads page and size; page defaults to 1 and size to
// models.DefaultPageSize.
func (h *Handler) pageRequest(c *gin.Context) (models.PageRequest, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		h.fail(c, apperrors.NewValidationError("page must be an integer >= 1"))
		return models.PageRequest{}, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(models.DefaultPageSize)))
	if err != nil || size < 1 || size > models.MaxPageSize {
		h.fail(c, apperrors.NewValidationError("size must be an integer between 1 and 100"))
		return models.PageRequest{}, false
	}
	return models.PageRequest{Page: page, Size: size}, true
}

// actor is the id recorded in the audit trail for the current request.
func actor(c *gin.Context) string {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.AbhaID
	}
	return ""
}

func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.fail(c, apperrors.NewUnauthorizedError("Not authenticated"))
		return nil, false
	}
	return user, true
}
