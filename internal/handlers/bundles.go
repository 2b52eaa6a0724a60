package handlers

import (
	"errors"
	"io"
	"net/http"

	"fhirfly-backend/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// maxBundleBytes caps uploaded bundles at 10 MiB.
const maxBundleBytes = 10 << 20

func (h *Handler) UploadBundle(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBundleBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, apperrors.NewValidationError("Bundle exceeds 10 MiB"))
			return
		}
		h.fail(c, apperrors.NewValidationError("Failed to read bundle").WithCause(err))
		return
	}
	key, err := h.Bundles.Upload(c.Request.Context(), user.AbhaID, body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Bundle uploaded successfully",
		"key":     key,
	})
}
