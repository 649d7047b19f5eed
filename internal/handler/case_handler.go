package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CaseHandler struct {
	caseService service.CaseService
}

func NewCaseHandler(caseService service.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

func (h *CaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	cases := router.Group("/api/cases")
	{
		anyRole := middleware.RequireRole(model.RoleVictim, model.RoleOfficial, model.RoleAdmin)

		cases.POST("", middleware.RequireRole(model.RoleVictim, model.RoleAdmin), h.RegisterCase)
		cases.GET("", anyRole, h.ListCases)
		cases.GET("/:id", anyRole, h.GetCase)
		cases.PATCH("/:id/status", middleware.RequirePermission("cases.approve"), h.UpdateStatus)
		cases.POST("/:id/assign", middleware.RequirePermission("cases.assign"), h.AssignOfficer)
		cases.POST("/:id/advance-stage", middleware.RequireRole(model.RoleOfficial, model.RoleAdmin), h.AdvanceStage)
		cases.POST("/:id/documents", anyRole, h.UploadDocument)
		cases.GET("/:id/documents", anyRole, h.ListDocuments)
		cases.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteCase)
	}
}

// actorFrom builds the acting identity from JWT claims set by the middleware.
func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: c.GetString("userID"),
		Role:   c.GetString("userRole"),
	}
}

// RegisterCase creates a new compensation case
// @Summary      Register case
// @Description  Registers a new compensation case with a generated case number
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterCaseRequest  true  "Register Case Payload"
// @Success      201      {object}  response.Response{data=service.CaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/cases [post]
func (h *CaseHandler) RegisterCase(c *gin.Context) {
	var req service.RegisterCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.caseService.RegisterCase(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListCases returns cases visible to the caller
// @Summary      List cases
// @Description  Retrieves a paginated, role-scoped list of cases
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Number of items per page (default 20)"
// @Param        status  query  string  false  "Filter by case status"
// @Param        stage   query  string  false  "Filter by legal-process stage"
// @Success      200  {object}  response.Response
// @Router       /api/cases [get]
func (h *CaseHandler) ListCases(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.CaseListFilter{
		Status: c.Query("status"),
		Stage:  c.Query("stage"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	cases, total, err := h.caseService.ListCases(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"cases": cases,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetCase returns a single case
// @Summary      Get case
// @Description  Retrieves a case by ID, subject to role-based visibility
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  response.Response{data=service.CaseResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/cases/{id} [get]
func (h *CaseHandler) GetCase(c *gin.Context) {
	result, err := h.caseService.GetCase(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateStatus applies a status transition to a case
// @Summary      Update case status
// @Description  Applies an edge-checked status transition (approve, reject, start payment, complete)
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Case ID"
// @Param        payload  body      service.UpdateCaseStatusRequest  true  "Status Update Payload"
// @Success      200      {object}  response.Response{data=service.CaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/cases/{id}/status [patch]
func (h *CaseHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateCaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.caseService.UpdateStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AssignOfficer assigns an investigating officer to a case
// @Summary      Assign officer
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Case ID"
// @Param        payload  body      service.AssignOfficerRequest  true  "Assign Officer Payload"
// @Success      200      {object}  response.Response{data=service.CaseResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/cases/{id}/assign [post]
func (h *CaseHandler) AssignOfficer(c *gin.Context) {
	var req service.AssignOfficerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.caseService.AssignOfficer(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AdvanceStage moves the legal-process stage one step forward
// @Summary      Advance case stage
// @Description  Moves stage forward along FIR -> CHARGESHEET -> CONVICTION
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  response.Response{data=service.CaseResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/cases/{id}/advance-stage [post]
func (h *CaseHandler) AdvanceStage(c *gin.Context) {
	result, err := h.caseService.AdvanceStage(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UploadDocument records an uploaded supporting document
// @Summary      Upload case document
// @Description  Stores the file and records bookkeeping for a supporting document
// @Tags         cases
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id             path      string  true   "Case ID"
// @Param        file           formData  file    true   "Document file"
// @Param        document_type  formData  string  false  "Document type (fir_copy, bank_passbook, ...)"
// @Success      201  {object}  response.Response{data=service.CaseDocumentResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/cases/{id}/documents [post]
func (h *CaseHandler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Document file is missing"))
		return
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to prepare upload directory"))
		return
	}

	storedName := fmt.Sprintf("%d_%s%s", time.Now().Unix(), uuid.NewString()[:8], filepath.Ext(file.Filename))
	storagePath := filepath.Join(uploadDir, storedName)
	if err := c.SaveUploadedFile(file, storagePath); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to store document"))
		return
	}

	upload := service.DocumentUpload{
		DocumentType:     c.DefaultPostForm("document_type", "other"),
		OriginalFilename: file.Filename,
		StoragePath:      storagePath,
		SizeBytes:        file.Size,
	}

	result, err := h.caseService.AddDocument(c.Request.Context(), actorFrom(c), c.Param("id"), upload)
	if err != nil {
		// Remove the orphaned file if bookkeeping failed
		_ = os.Remove(storagePath)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListDocuments returns recorded documents for a case
// @Summary      List case documents
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  response.Response{data=[]service.CaseDocumentResponse}
// @Router       /api/cases/{id}/documents [get]
func (h *CaseHandler) ListDocuments(c *gin.Context) {
	result, err := h.caseService.ListDocuments(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteCase removes a case and its documents
// @Summary      Delete case
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Case ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/cases/{id} [delete]
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	if err := h.caseService.DeleteCase(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
