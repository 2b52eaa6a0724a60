package handlers

import (
	"net/http"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Chat relays a message and its history to Gemini.
func (h *Handler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if !h.bindJSON(c, &req) {
		h.Metrics.ChatbotRequest("rejected")
		return
	}
	resp, err := h.Chatbot.Reply(c.Request.Context(), req)
	if err != nil {
		h.Metrics.ChatbotRequest(chatOutcome(err))
		h.fail(c, err)
		return
	}
	h.Metrics.ChatbotRequest("ok")
	c.JSON(http.StatusOK, resp)
}

func chatOutcome(err error) string {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return "rejected"
	case apperrors.IsType(err, apperrors.ErrorTypeUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
