package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"requestdesk/internal/model"
	"requestdesk/internal/service"
	"requestdesk/pkg/response"
)

type DepartmentHandler struct {
	departmentService service.DepartmentService
}

func NewDepartmentHandler(departmentService service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

func (h *DepartmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/departments", h.ListDepartments)
	router.POST("/departments", h.CreateDepartment)
	router.GET("/department/:id", h.Overview)
	router.GET("/department/:id/insights", h.Insights)
}

// ListDepartments handles GET /api/departments
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Department}
// @Router       /api/departments [get]
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	depts, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if depts == nil {
		depts = []model.Department{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, depts))
}

// CreateDepartment handles POST /api/departments
// @Summary      Create a department
// @Description  Admin only
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDepartmentRequest  true  "Department"
// @Success      201      {object}  response.Response{data=model.Department}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/departments [post]
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	dept, err := h.departmentService.Create(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dept))
}

// Overview handles GET /api/department/{id}
// @Summary      Department overview
// @Description  The department with its KPIs, reviewers and personnel
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response{data=service.DepartmentOverview}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/department/{id} [get]
func (h *DepartmentHandler) Overview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ov, err := h.departmentService.Overview(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ov))
}

// Insights handles GET /api/department/{id}/insights
// @Summary      Department insights
// @Description  KPIs and the created-vs-completed series for a date window
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true   "Department ID"
// @Param        from    query     string  false  "From (YYYY-MM-DD)"
// @Param        to      query     string  false  "To (YYYY-MM-DD)"
// @Param        bucket  query     string  false  "day | week | month"
// @Success      200     {object}  response.Response{data=report.Overview}
// @Router       /api/department/{id}/insights [get]
func (h *DepartmentHandler) Insights(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q service.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	ins, err := h.departmentService.Insights(c.Request.Context(), a, id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ins))
}
