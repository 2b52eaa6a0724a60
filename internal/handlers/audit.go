package handlers

import (
	"net/http"

	"fhirfly-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, ok := h.pageRequest(c)
	if !ok {
		return
	}
	recordID, ok := h.optionalUUIDQuery(c, "record_id")
	if !ok {
		return
	}
	f := models.AuditLogFilter{
		Table:     c.Query("table_name"),
		Operation: c.Query("operation"),
		RecordID:  recordID,
		UserID:    c.Query("user_id"),
	}
	result, err := h.Audit.List(c.Request.Context(), f, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetAuditLog(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.Audit.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListAuditLogsByRecord(c *gin.Context) {
	recordID, ok := h.uuidParam(c, "record_id")
	if !ok {
		return
	}
	entries, err := h.Audit.ListByRecord(c.Request.Context(), c.Param("table_name"), recordID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
