package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harborlend/loancrm/internal/core/domain"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
	"github.com/harborlend/loancrm/internal/middleware"
)

// leadHandler handles lead import and lead source requests.
type leadHandler struct {
	leadService portssvc.LeadService
}

func newLeadHandler(ls portssvc.LeadService) *leadHandler {
	return &leadHandler{leadService: ls}
}

// registerLeadRoutes registers routes related to leads and lead sources.
func registerLeadRoutes(rg *gin.RouterGroup, leadService portssvc.LeadService) {
	h := newLeadHandler(leadService)

	leads := rg.Group("/leads")
	{
		leads.GET("/external", h.listExternalContacts)
		leads.POST("/import/:contactID", h.importLead)
		leads.POST("/sync/:loanID", h.syncContact)
		leads.GET("/sources", h.listLeadSources)
		leads.PUT("/sources/:id", h.updateLeadSource)

		admin := leads.Group("", middleware.RequireRole(domain.RoleAdmin))
		{
			admin.POST("/sources", h.createLeadSource)
			admin.DELETE("/sources/:id", h.deleteLeadSource)
		}
	}
}

// listExternalContacts godoc
// @Summary Browse upstream contacts
// @Description Proxies the external contact service, optionally filtered by a search query.
// @Tags leads
// @Produce json
// @Param query query string false "Search term (name or email)"
// @Param limit query int false "Max entries (default 20)"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /leads/external [get]
func (h *leadHandler) listExternalContacts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	contacts, total, err := h.leadService.ListExternalContacts(c.Request.Context(), actor, c.Query("query"), limit)
	if err != nil {
		respondError(c, err, "Failed to load external contacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  dto.ToListContactResponse(contacts),
		"total": total,
	})
}

// importLead godoc
// @Summary Import a contact as a lead
// @Description Fetches the contact upstream and opens a loan in the New Lead stage with a next-day follow-up task.
// @Tags leads
// @Accept json
// @Produce json
// @Param contactID path string true "Upstream contact ID"
// @Param lead body dto.ImportLeadRequest false "Optional source attribution"
// @Success 201 {object} dto.LoanResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Unknown contact"
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /leads/import/{contactID} [post]
func (h *leadHandler) importLead(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ImportLeadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	loan, err := h.leadService.ImportLead(c.Request.Context(), actor, c.Param("contactID"), req.Source)
	if err != nil {
		respondError(c, err, "Failed to import lead")
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logger.Info("lead imported",
		slog.String("loan_id", loan.LoanID),
		slog.String("loan_number", loan.LoanNumber))
	c.JSON(http.StatusCreated, dto.ToLoanResponse(loan))
}

// syncContact godoc
// @Summary Push borrower details upstream
// @Description Writes the loan's borrower details back to the matching upstream contact, creating one when no match exists.
// @Tags leads
// @Produce json
// @Param loanID path string true "Loan ID"
// @Success 200 {object} dto.LoanResponse
// @Failure 400 {object} ErrorResponse "Loan has no borrower email"
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /leads/sync/{loanID} [post]
func (h *leadHandler) syncContact(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	loan, err := h.leadService.SyncContact(c.Request.Context(), actor, c.Param("loanID"))
	if err != nil {
		respondError(c, err, "Failed to sync contact")
		return
	}
	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

// listLeadSources godoc
// @Summary List lead sources
// @Description Source attribution stats, visible to production partners and admins.
// @Tags leads
// @Produce json
// @Param activeOnly query bool false "Only active sources"
// @Success 200 {array} dto.LeadSourceResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /leads/sources [get]
func (h *leadHandler) listLeadSources(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("activeOnly", "false"))

	sources, err := h.leadService.ListLeadSources(c.Request.Context(), actor, activeOnly)
	if err != nil {
		respondError(c, err, "Failed to list lead sources")
		return
	}
	c.JSON(http.StatusOK, dto.ToListLeadSourceResponse(sources))
}

// createLeadSource godoc
// @Summary Create a lead source
// @Tags leads
// @Accept json
// @Produce json
// @Param source body dto.CreateLeadSourceRequest true "Source details"
// @Success 201 {object} dto.LeadSourceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Duplicate name"
// @Security BearerAuth
// @Router /leads/sources [post]
func (h *leadHandler) createLeadSource(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateLeadSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	source, err := h.leadService.CreateLeadSource(c.Request.Context(), actor, req.Name)
	if err != nil {
		respondError(c, err, "Failed to create lead source")
		return
	}
	c.JSON(http.StatusCreated, dto.ToLeadSourceResponse(source))
}

// updateLeadSource godoc
// @Summary Update a lead source
// @Tags leads
// @Accept json
// @Produce json
// @Param id path string true "Lead source ID"
// @Param source body dto.UpdateLeadSourceRequest true "Source fields"
// @Success 200 {object} dto.LeadSourceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /leads/sources/{id} [put]
func (h *leadHandler) updateLeadSource(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateLeadSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	source, err := h.leadService.UpdateLeadSource(c.Request.Context(), actor, c.Param("id"), req.Name, req.IsActive)
	if err != nil {
		respondError(c, err, "Failed to update lead source")
		return
	}
	c.JSON(http.StatusOK, dto.ToLeadSourceResponse(source))
}

// deleteLeadSource godoc
// @Summary Delete a lead source
// @Tags leads
// @Produce json
// @Param id path string true "Lead source ID"
// @Success 204 "Deleted"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /leads/sources/{id} [delete]
func (h *leadHandler) deleteLeadSource(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.leadService.DeleteLeadSource(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete lead source")
		return
	}
	c.Status(http.StatusNoContent)
}
