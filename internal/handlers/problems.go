package handlers

import (
	"net/http"

	"fhirfly-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProblems(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	items, err := h.Problems.List(c.Request.Context(), user.AbhaID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) AddProblem(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req models.AddProblemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.Problems.Add(c.Request.Context(), user.AbhaID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) RemoveProblem(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.Problems.Remove(c.Request.Context(), user.AbhaID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
