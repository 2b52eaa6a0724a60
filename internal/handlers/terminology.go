package handlers

import (
	"net/http"
	"strconv"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SearchTerminology answers ?query= with matching terms; a missing query
// yields [].
func (h *Handler) SearchTerminology(c *gin.Context) {
	c.JSON(http.StatusOK, h.Terminology.Search(c.Request.Context(), c.Query("query")))
}

func (h *Handler) TermAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, h.Analytics.Terms(c.Request.Context()))
}

func (h *Handler) TopTerms(c *gin.Context) {
	n := services.DefaultTopN
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, apperrors.NewValidationError("n must be an integer"))
			return
		}
		n = v
	}
	c.JSON(http.StatusOK, h.Analytics.Top(c.Request.Context(), n))
}

func (h *Handler) DashboardStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Analytics.Dashboard(c.Request.Context()))
}
