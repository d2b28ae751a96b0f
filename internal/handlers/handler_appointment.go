package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harborlend/loancrm/internal/apperrors"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/dto"
)

// appointmentHandler handles appointment and calendar requests.
type appointmentHandler struct {
	apptService portssvc.AppointmentService
}

func newAppointmentHandler(as portssvc.AppointmentService) *appointmentHandler {
	return &appointmentHandler{apptService: as}
}

// registerAppointmentRoutes registers routes related to appointments.
func registerAppointmentRoutes(rg *gin.RouterGroup, apptService portssvc.AppointmentService) {
	h := newAppointmentHandler(apptService)

	appts := rg.Group("/appointments")
	{
		appts.POST("", h.createAppointment)
		appts.GET("", h.listAppointments)
		appts.GET("/today", h.getToday)
		appts.GET("/upcoming", h.getUpcoming)
		appts.GET("/categories", h.getCategories)
		appts.GET("/calendar/:year/:month", h.getCalendar)
		appts.GET("/:id", h.getAppointment)
		appts.PUT("/:id", h.updateAppointment)
		appts.DELETE("/:id", h.deleteAppointment)
	}
}

// createAppointment godoc
// @Summary Schedule an appointment
// @Description Rejects scheduling when the interval overlaps another of the caller's appointments.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body dto.CreateAppointmentRequest true "Appointment details"
// @Success 201 {object} dto.AppointmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Conflicting appointment"
// @Security BearerAuth
// @Router /appointments [post]
func (h *appointmentHandler) createAppointment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	appt, err := h.apptService.CreateAppointment(c.Request.Context(), actor, req.ToAppointment())
	if err != nil {
		respondError(c, err, "Failed to schedule appointment")
		return
	}
	c.JSON(http.StatusCreated, dto.ToAppointmentResponse(appt))
}

// listAppointments godoc
// @Summary List appointments
// @Tags appointments
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param category query string false "Filter by category"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /appointments [get]
func (h *appointmentHandler) listAppointments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var params dto.ListAppointmentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	filter := params.ToAppointmentFilter()
	appts, total, err := h.apptService.ListAppointments(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err, "Failed to list appointments")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       dto.ToListAppointmentResponse(appts),
		"pagination": dto.NewPagination(total, filter.Page.Limit, filter.Page.Offset),
	})
}

// getToday godoc
// @Summary Today's appointments
// @Tags appointments
// @Produce json
// @Success 200 {array} dto.AppointmentResponse
// @Security BearerAuth
// @Router /appointments/today [get]
func (h *appointmentHandler) getToday(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	appts, err := h.apptService.GetToday(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load today's appointments")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAppointmentResponse(appts))
}

// getUpcoming godoc
// @Summary Upcoming appointments
// @Tags appointments
// @Produce json
// @Param limit query int false "Max entries (default 5)"
// @Success 200 {array} dto.AppointmentResponse
// @Security BearerAuth
// @Router /appointments/upcoming [get]
func (h *appointmentHandler) getUpcoming(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 {
		limit = 5
	}

	appts, err := h.apptService.GetUpcoming(c.Request.Context(), actor, limit)
	if err != nil {
		respondError(c, err, "Failed to load upcoming appointments")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAppointmentResponse(appts))
}

// getCategories godoc
// @Summary Distinct appointment categories in use
// @Tags appointments
// @Produce json
// @Success 200 {array} string
// @Security BearerAuth
// @Router /appointments/categories [get]
func (h *appointmentHandler) getCategories(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	categories, err := h.apptService.GetCategories(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load appointment categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// getCalendar godoc
// @Summary Month calendar view
// @Description Appointments for the given month grouped by day, keyed "YYYY-MM-DD".
// @Tags appointments
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} map[string][]dto.AppointmentResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /appointments/calendar/{year}/{month} [get]
func (h *appointmentHandler) getCalendar(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: year must be a number", apperrors.ErrValidation), "Invalid calendar path")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		respondError(c, fmt.Errorf("%w: month must be between 1 and 12", apperrors.ErrValidation), "Invalid calendar path")
		return
	}

	calendar, err := h.apptService.GetCalendar(c.Request.Context(), actor, year, time.Month(month))
	if err != nil {
		respondError(c, err, "Failed to load calendar")
		return
	}
	c.JSON(http.StatusOK, dto.ToCalendarResponse(calendar))
}

// getAppointment godoc
// @Summary Get an appointment by ID
// @Tags appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} dto.AppointmentResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /appointments/{id} [get]
func (h *appointmentHandler) getAppointment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	appt, err := h.apptService.GetAppointmentByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load appointment")
		return
	}
	c.JSON(http.StatusOK, dto.ToAppointmentResponse(appt))
}

// updateAppointment godoc
// @Summary Update an appointment
// @Description Rescheduling re-runs conflict detection against the caller's other appointments.
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param appointment body dto.UpdateAppointmentRequest true "Appointment fields"
// @Success 200 {object} dto.AppointmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Conflicting appointment"
// @Security BearerAuth
// @Router /appointments/{id} [put]
func (h *appointmentHandler) updateAppointment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	appt, err := h.apptService.UpdateAppointment(c.Request.Context(), actor, c.Param("id"), req.ToAppointmentPatch())
	if err != nil {
		respondError(c, err, "Failed to update appointment")
		return
	}
	c.JSON(http.StatusOK, dto.ToAppointmentResponse(appt))
}

// deleteAppointment godoc
// @Summary Delete an appointment
// @Tags appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /appointments/{id} [delete]
func (h *appointmentHandler) deleteAppointment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.apptService.DeleteAppointment(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete appointment")
		return
	}
	c.Status(http.StatusNoContent)
}
