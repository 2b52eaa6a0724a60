package handlers

import (
	"errors"
	"io"
	"net/http"

	"fhirfly-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.Auth.Login(c.Request.Context(), req.AbhaID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoginClinician accepts an empty body, which signs in the demo clinician.
func (h *Handler) LoginClinician(c *gin.Context) {
	var req models.ClinicianLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badBody(c, err)
		return
	}
	resp, err := h.Auth.LoginClinician(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), c.GetHeader("Authorization")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}
