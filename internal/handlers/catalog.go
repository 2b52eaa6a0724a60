package handlers

import (
	"net/http"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Code systems

func (h *Handler) CreateCodeSystem(c *gin.Context) {
	var in models.CodeSystemInput
	if !h.bindJSON(c, &in) {
		return
	}
	cs, err := h.Catalog.CreateCodeSystem(c.Request.Context(), in, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cs)
}

func (h *Handler) ListCodeSystems(c *gin.Context) {
	page, ok := h.pageRequest(c)
	if !ok {
		return
	}
	result, err := h.Catalog.ListCodeSystems(c.Request.Context(), models.CodeSystemFilter{Search: c.Query("search")}, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetCodeSystem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	cs, err := h.Catalog.GetCodeSystem(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h *Handler) GetCodeSystemByURL(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		h.fail(c, apperrors.NewValidationError("url is required"))
		return
	}
	cs, err := h.Catalog.GetCodeSystemByURL(c.Request.Context(), url)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h *Handler) GetCodeSystemByName(c *gin.Context) {
	cs, err := h.Catalog.GetCodeSystemByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h *Handler) UpdateCodeSystem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var in models.CodeSystemInput
	if !h.bindJSON(c, &in) {
		return
	}
	cs, err := h.Catalog.UpdateCodeSystem(c.Request.Context(), id, in, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h *Handler) DeleteCodeSystem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	cs, err := h.Catalog.DeleteCodeSystem(c.Request.Context(), id, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

// Concepts

func (h *Handler) CreateConcept(c *gin.Context) {
	var in models.ConceptInput
	if !h.bindJSON(c, &in) {
		return
	}
	concept, err := h.Catalog.CreateConcept(c.Request.Context(), in, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, concept)
}

func (h *Handler) ListConcepts(c *gin.Context) {
	page, ok := h.pageRequest(c)
	if !ok {
		return
	}
	csID, ok := h.optionalUUIDQuery(c, "codesystem_id")
	if !ok {
		return
	}
	f := models.ConceptFilter{CodeSystemID: csID, Search: c.Query("search")}
	result, err := h.Catalog.ListConcepts(c.Request.Context(), f, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetConcept(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	concept, err := h.Catalog.GetConcept(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, concept)
}

func (h *Handler) GetConceptByCode(c *gin.Context) {
	csID, ok := h.uuidParam(c, "codesystem_id")
	if !ok {
		return
	}
	concept, err := h.Catalog.GetConceptByCode(c.Request.Context(), csID, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, concept)
}

func (h *Handler) ListConceptsByCodeSystem(c *gin.Context) {
	csID, ok := h.uuidParam(c, "codesystem_id")
	if !ok {
		return
	}
	concepts, err := h.Catalog.ListConceptsByCodeSystem(c.Request.Context(), csID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, concepts)
}

func (h *Handler) UpdateConcept(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var in models.ConceptInput
	if !h.bindJSON(c, &in) {
		return
	}
	concept, err := h.Catalog.UpdateConcept(c.Request.Context(), id, in, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, concept)
}

func (h *Handler) DeleteConcept(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	concept, err := h.Catalog.DeleteConcept(c.Request.Context(), id, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, concept)
}

// Concept maps

func (h *Handler) CreateConceptMap(c *gin.Context) {
	var in models.ConceptMapInput
	if !h.bindJSON(c, &in) {
		return
	}
	m, err := h.Catalog.CreateConceptMap(c.Request.Context(), in, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListConceptMaps(c *gin.Context) {
	page, ok := h.pageRequest(c)
	if !ok {
		return
	}
	source, ok := h.optionalUUIDQuery(c, "source_codesystem_id")
	if !ok {
		return
	}
	target, ok := h.optionalUUIDQuery(c, "target_codesystem_id")
	if !ok {
		return
	}
	f := models.ConceptMapFilter{
		SourceCodeSystemID: source,
		TargetCodeSystemID: target,
		Search:             c.Query("search"),
	}
	result, err := h.Catalog.ListConceptMaps(c.Request.Context(), f, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetConceptMap(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := h.Catalog.GetConceptMap(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateConceptMap(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var in models.ConceptMapInput
	if !h.bindJSON(c, &in) {
		return
	}
	m, err := h.Catalog.UpdateConceptMap(c.Request.Context(), id, in, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteConceptMap(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := h.Catalog.DeleteConceptMap(c.Request.Context(), id, actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) Translate(c *gin.Context) {
	var req models.TranslationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.Catalog.Translate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
