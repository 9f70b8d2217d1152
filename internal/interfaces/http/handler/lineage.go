package handler

import (
	"errors"
	"strconv"

	lineageapp "github.com/erp/lineage/internal/application/lineage"
	"github.com/erp/lineage/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// LineageHandler handles entity, relation and trace API endpoints
type LineageHandler struct {
	BaseHandler
	lineageService *lineageapp.LineageService
}

// NewLineageHandler creates a new LineageHandler
func NewLineageHandler(lineageService *lineageapp.LineageService) *LineageHandler {
	return &LineageHandler{
		lineageService: lineageService,
	}
}

// RegisterRoutes registers the lineage API routes
func (h *LineageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	entities := rg.Group("/entities")
	{
		entities.POST("", h.RegisterEntity)
		entities.GET("/:uid", h.GetEntity)
		entities.PATCH("/:uid/status", h.UpdateEntityStatus)
	}

	relations := rg.Group("/relations")
	{
		relations.POST("", h.LinkEntities)
		relations.GET("/:uid", h.GetRelations)
	}

	lineage := rg.Group("/lineage")
	{
		lineage.GET("/:uid/trace", h.Trace)
		lineage.GET("/:uid/chain", h.Chain)
	}

	rg.POST("/transitions/validate", h.ValidateTransition)

	statuses := rg.Group("/statuses")
	{
		statuses.GET("/:status/transitions", h.StatusTransitions)
		statuses.GET("/:status/actions", h.StatusActions)
	}
}

// bindJSON unmarshals the request body, emitting a structured validation
// response for binding failures.
func (h *LineageHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			middleware.HandleValidationError(c, err)
		} else {
			h.BadRequest(c, err.Error())
		}
		return false
	}
	return true
}

// RegisterEntity mints a UID for a new business entity snapshot
func (h *LineageHandler) RegisterEntity(c *gin.Context) {
	var req lineageapp.RegisterEntityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entity, err := h.lineageService.RegisterEntity(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entity)
}

// GetEntity returns a registered entity with its canonical status
func (h *LineageHandler) GetEntity(c *gin.Context) {
	entity, err := h.lineageService.GetEntity(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entity)
}

// UpdateEntityStatus commits a raw status change after state-machine validation
func (h *LineageHandler) UpdateEntityStatus(c *gin.Context) {
	var req lineageapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	entity, err := h.lineageService.UpdateEntityStatus(c.Request.Context(), c.Param("uid"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entity)
}

// LinkEntities appends a relation edge between two UIDs
func (h *LineageHandler) LinkEntities(c *gin.Context) {
	var req lineageapp.LinkEntitiesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	relation, err := h.lineageService.LinkEntities(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, relation)
}

// GetRelations lists every relation edge touching a UID
func (h *LineageHandler) GetRelations(c *gin.Context) {
	relations, err := h.lineageService.GetRelations(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, relations)
}

// Trace runs a bounded lineage traversal from a UID.
// An optional max_depth query parameter overrides the default depth.
func (h *LineageHandler) Trace(c *gin.Context) {
	maxDepth := 0
	if raw := c.Query("max_depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "max_depth must be a positive integer")
			return
		}
		maxDepth = parsed
	}

	results, err := h.lineageService.TraceLineage(c.Request.Context(), c.Param("uid"), maxDepth)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, results)
}

// Chain partitions a UID's lineage into upstream and downstream entities
func (h *LineageHandler) Chain(c *gin.Context) {
	chain, err := h.lineageService.GetChain(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, chain)
}

// ValidateTransition checks a proposed canonical transition
func (h *LineageHandler) ValidateTransition(c *gin.Context) {
	var req lineageapp.ValidateTransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.Success(c, h.lineageService.ValidateTransition(req))
}

// StatusTransitions lists the legal next states of a canonical status
func (h *LineageHandler) StatusTransitions(c *gin.Context) {
	resp, err := h.lineageService.AvailableTransitions(c.Param("status"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// StatusActions reports which business actions a canonical status allows
func (h *LineageHandler) StatusActions(c *gin.Context) {
	resp, err := h.lineageService.AllowedActions(c.Param("status"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
