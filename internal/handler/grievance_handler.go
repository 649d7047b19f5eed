package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type GrievanceHandler struct {
	grievanceService service.GrievanceService
}

func NewGrievanceHandler(grievanceService service.GrievanceService) *GrievanceHandler {
	return &GrievanceHandler{grievanceService: grievanceService}
}

func (h *GrievanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	grievances := router.Group("/api/grievances")
	{
		anyRole := middleware.RequireRole(model.RoleVictim, model.RoleOfficial, model.RoleAdmin)

		grievances.POST("", anyRole, h.CreateGrievance)
		grievances.POST("/classify-preview", anyRole, h.ClassifyPreview)
		grievances.GET("", anyRole, h.ListGrievances)
		grievances.GET("/:id", anyRole, h.GetGrievance)
		grievances.PATCH("/:id", middleware.RequireRole(model.RoleOfficial, model.RoleAdmin), h.UpdateGrievance)
		grievances.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteGrievance)
	}
}

// CreateGrievance submits a grievance against an existing case
// @Summary      Create grievance
// @Description  Submits a grievance; priority is assigned by the keyword classifier
// @Tags         grievances
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateGrievanceRequest  true  "Create Grievance Payload"
// @Success      201      {object}  response.Response{data=service.GrievanceResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/grievances [post]
func (h *GrievanceHandler) CreateGrievance(c *gin.Context) {
	var req service.CreateGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.grievanceService.CreateGrievance(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ClassifyPreview returns the priority the classifier would assign
// @Summary      Preview grievance priority
// @Description  Runs the keyword classifier on the given text without persisting anything
// @Tags         grievances
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ClassifyPreviewRequest  true  "Classify Preview Payload"
// @Success      200      {object}  response.Response{data=service.ClassifyPreviewResponse}
// @Router       /api/grievances/classify-preview [post]
func (h *GrievanceHandler) ClassifyPreview(c *gin.Context) {
	var req service.ClassifyPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result := h.grievanceService.ClassifyPreview(req)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListGrievances returns grievances visible to the caller
// @Summary      List grievances
// @Tags         grievances
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        limit     query  int     false  "Number of items per page (default 20)"
// @Param        case_id   query  string  false  "Filter by case ID"
// @Param        status    query  string  false  "Filter by grievance status"
// @Param        priority  query  string  false  "Filter by priority tier"
// @Success      200  {object}  response.Response
// @Router       /api/grievances [get]
func (h *GrievanceHandler) ListGrievances(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.GrievanceListFilter{
		CaseID:   c.Query("case_id"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	grievances, total, err := h.grievanceService.ListGrievances(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"grievances": grievances,
		"total":      total,
		"page":       params.Page,
		"limit":      params.Limit,
	}))
}

// GetGrievance returns a single grievance
// @Summary      Get grievance
// @Tags         grievances
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Grievance ID"
// @Success      200  {object}  response.Response{data=service.GrievanceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/grievances/{id} [get]
func (h *GrievanceHandler) GetGrievance(c *gin.Context) {
	result, err := h.grievanceService.GetGrievance(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateGrievance moves a grievance through its lifecycle
// @Summary      Update grievance
// @Description  Updates grievance status and resolution notes; escalation triggers an alert
// @Tags         grievances
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Grievance ID"
// @Param        payload  body      service.UpdateGrievanceRequest  true  "Update Grievance Payload"
// @Success      200      {object}  response.Response{data=service.GrievanceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/grievances/{id} [patch]
func (h *GrievanceHandler) UpdateGrievance(c *gin.Context) {
	var req service.UpdateGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.grievanceService.UpdateGrievance(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteGrievance removes a grievance
// @Summary      Delete grievance
// @Tags         grievances
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Grievance ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/grievances/{id} [delete]
func (h *GrievanceHandler) DeleteGrievance(c *gin.Context) {
	if err := h.grievanceService.DeleteGrievance(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
