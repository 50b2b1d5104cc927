package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"requestdesk/internal/badge"
	"requestdesk/internal/service"
	"requestdesk/pkg/response"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard/overview", h.Dashboard)
	router.GET("/reports/user-job-report/:id", h.UserJobReport)
	router.GET("/calendar", h.Calendar)
	router.GET("/meta/statuses", h.Statuses)
}

// Dashboard handles GET /api/dashboard/overview
// @Summary      Dashboard overview
// @Description  KPIs and the created-vs-completed series. Approvers see everything, reviewers their department, others their own requests.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from    query     string  false  "From (YYYY-MM-DD)"
// @Param        to      query     string  false  "To (YYYY-MM-DD)"
// @Param        bucket  query     string  false  "day | week | month"
// @Success      200     {object}  response.Response{data=service.DashboardOverview}
// @Router       /api/dashboard/overview [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q service.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	ov, err := h.reportService.Dashboard(c.Request.Context(), a, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ov))
}

// UserJobReport handles GET /api/reports/user-job-report/{id}
// @Summary      Job report for one member of personnel
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=report.JobReport}
// @Failure      403  {object}  response.Response
// @Router       /api/reports/user-job-report/{id} [get]
func (h *ReportHandler) UserJobReport(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	jr, err := h.reportService.UserJobReport(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, jr))
}

// Calendar handles GET /api/calendar
// @Summary      Scheduled venue bookings, trips and job due dates
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from           query     string  true   "From (YYYY-MM-DD)"
// @Param        to             query     string  true   "To (YYYY-MM-DD)"
// @Param        department_id  query     string  false  "Department ID"
// @Success      200            {object}  response.Response{data=[]service.CalendarEvent}
// @Router       /api/calendar [get]
func (h *ReportHandler) Calendar(c *gin.Context) {
	var q service.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	events, err := h.reportService.Calendar(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []service.CalendarEvent{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, events))
}

// Statuses handles GET /api/meta/statuses
// @Summary      Every status and priority with its display badge
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=badge.Catalog}
// @Router       /api/meta/statuses [get]
func (h *ReportHandler) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, badge.All()))
}
