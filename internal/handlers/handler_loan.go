package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
	"github.com/harborlend/loancrm/internal/middleware"
)

// loanHandler handles loan pipeline requests.
type loanHandler struct {
	loanService portssvc.LoanService
}

func newLoanHandler(ls portssvc.LoanService) *loanHandler {
	return &loanHandler{loanService: ls}
}

// registerLoanRoutes registers routes related to loans.
func registerLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanService) {
	h := newLoanHandler(loanService)

	loans := rg.Group("/loans")
	{
		loans.POST("", h.createLoan)
		loans.GET("", h.listLoans)
		loans.GET("/pipeline/stages", h.getPipelineStages)
		loans.GET("/:id", h.getLoan)
		loans.PUT("/:id", h.updateLoan)
		loans.DELETE("/:id", h.deleteLoan)
		loans.GET("/:id/stage-history", h.getStageHistory)
	}
}

// createLoan godoc
// @Summary Create a loan
// @Description Opens a loan in the "New Lead" stage with its initial stage-history entry.
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body dto.CreateLoanRequest true "Loan details"
// @Success 201 {object} dto.LoanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans [post]
func (h *loanHandler) createLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	loan, err := h.loanService.CreateLoan(c.Request.Context(), actor, req.ToCreateLoanInput())
	if err != nil {
		respondError(c, err, "Failed to create loan")
		return
	}

	logger.Info("loan created", slog.String("loan_id", loan.LoanID), slog.String("loan_number", loan.LoanNumber))
	c.JSON(http.StatusCreated, dto.ToLoanResponse(loan))
}

// listLoans godoc
// @Summary List loans
// @Description Paginated loan list, scoped to the caller's visibility.
// @Tags loans
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param stage query string false "Filter by current stage"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *loanHandler) listLoans(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var params dto.ListLoansParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	filter := params.ToLoanFilter()
	loans, total, err := h.loanService.ListLoans(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "Failed to list loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       dto.ToListLoanResponse(loans),
		"pagination": dto.NewPagination(total, filter.Page.Limit, filter.Page.Offset),
	})
}

// getLoan godoc
// @Summary Get a loan by ID
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} dto.LoanResponse
// @Failure 404 {object} ErrorResponse "Unknown or out-of-scope loan"
// @Security BearerAuth
// @Router /loans/{id} [get]
func (h *loanHandler) getLoan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	loan, err := h.loanService.GetLoanByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load loan")
		return
	}
	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

// updateLoan godoc
// @Summary Update a loan
// @Description Applies the patch; changing currentStage advances the stage history atomically.
// @Tags loans
// @Accept json
// @Produce json
// @Param id path string true "Loan ID"
// @Param loan body dto.UpdateLoanRequest true "Loan fields"
// @Success 200 {object} dto.LoanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id} [put]
func (h *loanHandler) updateLoan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	loan, err := h.loanService.UpdateLoan(c.Request.Context(), actor, c.Param("id"), req.ToLoanPatch())
	if err != nil {
		respondError(c, err, "Failed to update loan")
		return
	}
	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

// deleteLoan godoc
// @Summary Delete a loan
// @Description Admin-only. Cascades stage history, tasks, documents and communications.
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 204 "Deleted"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id} [delete]
func (h *loanHandler) deleteLoan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.loanService.DeleteLoan(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete loan")
		return
	}
	c.Status(http.StatusNoContent)
}

// getStageHistory godoc
// @Summary Get a loan's stage history
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {array} dto.StageHistoryResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans/{id}/stage-history [get]
func (h *loanHandler) getStageHistory(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	entries, err := h.loanService.GetStageHistory(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load stage history")
		return
	}
	c.JSON(http.StatusOK, dto.ToListStageHistoryResponse(entries))
}

// getPipelineStages godoc
// @Summary Pipeline grouped by stage
// @Description Loan count and amount sum per current stage, scoped to the caller.
// @Tags loans
// @Produce json
// @Param loanOfficerID query string false "Restrict to one officer's loans"
// @Success 200 {array} dto.PipelineStageResponse
// @Security BearerAuth
// @Router /loans/pipeline/stages [get]
func (h *loanHandler) getPipelineStages(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.loanService.GetPipelineSummary(c.Request.Context(), actor, c.Query("loanOfficerID"))
	if err != nil {
		respondError(c, err, "Failed to load pipeline")
		return
	}
	c.JSON(http.StatusOK, dto.ToListPipelineStageResponse(summary))
}
