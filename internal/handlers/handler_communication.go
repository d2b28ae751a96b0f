package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
)

// communicationHandler handles communication log requests.
type communicationHandler struct {
	commService portssvc.CommunicationService
}

func newCommunicationHandler(cs portssvc.CommunicationService) *communicationHandler {
	return &communicationHandler{commService: cs}
}

// registerCommunicationRoutes registers routes related to communications.
func registerCommunicationRoutes(rg *gin.RouterGroup, commService portssvc.CommunicationService) {
	h := newCommunicationHandler(commService)

	comms := rg.Group("/communications")
	{
		comms.POST("", h.createCommunication)
		comms.GET("", h.listCommunications)
		comms.GET("/recent", h.getRecent)
		comms.GET("/stats", h.getStats)
		comms.GET("/:id", h.getCommunication)
		comms.PUT("/:id", h.updateCommunication)
		comms.DELETE("/:id", h.deleteCommunication)
	}
}

// createCommunication godoc
// @Summary Log a communication
// @Tags communications
// @Accept json
// @Produce json
// @Param communication body dto.CreateCommunicationRequest true "Communication details"
// @Success 201 {object} dto.CommunicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown or out-of-scope loan"
// @Security BearerAuth
// @Router /communications [post]
func (h *communicationHandler) createCommunication(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateCommunicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comm, err := h.commService.CreateCommunication(c.Request.Context(), actor, req.ToCommunication())
	if err != nil {
		respondError(c, err, "Failed to log communication")
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommunicationResponse(comm))
}

// listCommunications godoc
// @Summary List communications
// @Tags communications
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param loanID query string false "Filter by loan"
// @Param type query string false "Filter by type"
// @Param direction query string false "Filter by direction"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /communications [get]
func (h *communicationHandler) listCommunications(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var params dto.ListCommunicationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	filter := params.ToCommunicationFilter(time.Now())
	comms, total, err := h.commService.ListCommunications(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "Failed to list communications")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       dto.ToListCommunicationResponse(comms),
		"pagination": dto.NewPagination(total, filter.Page.Limit, filter.Page.Offset),
	})
}

// getRecent godoc
// @Summary Most recent communications
// @Tags communications
// @Produce json
// @Param limit query int false "Max entries (default 10)"
// @Success 200 {array} dto.CommunicationResponse
// @Security BearerAuth
// @Router /communications/recent [get]
func (h *communicationHandler) getRecent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	comms, _, err := h.commService.ListCommunications(c.Request.Context(), actor, portsrepo.CommunicationFilter{
		Page: portsrepo.Page{Limit: limit},
	})
	if err != nil {
		respondError(c, err, "Failed to load recent communications")
		return
	}
	c.JSON(http.StatusOK, dto.ToListCommunicationResponse(comms))
}

// getStats godoc
// @Summary Communication statistics
// @Description Totals by type and direction over the given period.
// @Tags communications
// @Produce json
// @Param period query string false "7d, 30d, 90d or 1y"
// @Success 200 {object} domain.CommunicationStats
// @Security BearerAuth
// @Router /communications/stats [get]
func (h *communicationHandler) getStats(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var params dto.ListCommunicationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	stats, err := h.commService.GetCommunicationStats(c.Request.Context(), actor, params.ToCommunicationFilter(time.Now()))
	if err != nil {
		respondError(c, err, "Failed to load communication stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// getCommunication godoc
// @Summary Get a communication by ID
// @Tags communications
// @Produce json
// @Param id path string true "Communication ID"
// @Success 200 {object} dto.CommunicationResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /communications/{id} [get]
func (h *communicationHandler) getCommunication(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	comm, err := h.commService.GetCommunicationByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load communication")
		return
	}
	c.JSON(http.StatusOK, dto.ToCommunicationResponse(comm))
}

// updateCommunication godoc
// @Summary Update a communication
// @Tags communications
// @Accept json
// @Produce json
// @Param id path string true "Communication ID"
// @Param communication body dto.UpdateCommunicationRequest true "Communication fields"
// @Success 200 {object} dto.CommunicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /communications/{id} [put]
func (h *communicationHandler) updateCommunication(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateCommunicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comm, err := h.commService.UpdateCommunication(c.Request.Context(), actor, c.Param("id"), req.ToCommunicationPatch())
	if err != nil {
		respondError(c, err, "Failed to update communication")
		return
	}
	c.JSON(http.StatusOK, dto.ToCommunicationResponse(comm))
}

// deleteCommunication godoc
// @Summary Delete a communication
// @Tags communications
// @Produce json
// @Param id path string true "Communication ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /communications/{id} [delete]
func (h *communicationHandler) deleteCommunication(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.commService.DeleteCommunication(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete communication")
		return
	}
	c.Status(http.StatusNoContent)
}
