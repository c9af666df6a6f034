package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkflowHandler struct {
	workflowService service.WorkflowService
	userRepo        repository.UserRepository
}

func NewWorkflowHandler(workflowService service.WorkflowService, userRepo repository.UserRepository) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService, userRepo: userRepo}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api", middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/workflows", h.List)
		admin.PUT("/workflows", h.Upsert)
		admin.GET("/job-titles", h.ListJobTitles)
	}
}

// List returns all workflow definitions
// @Summary      List workflows
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	workflows, err := h.workflowService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflows))
}

// Upsert replaces the approver chain for an applicant job title
// @Summary      Create or replace a workflow
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        workflow body service.UpsertWorkflowRequest true "Workflow definition"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/workflows [put]
func (h *WorkflowHandler) Upsert(c *gin.Context) {
	var req service.UpsertWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	workflow, err := h.workflowService.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflow))
}

// ListJobTitles returns the distinct job titles of active users
// @Summary      List active job titles
// @Tags         workflows
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/job-titles [get]
func (h *WorkflowHandler) ListJobTitles(c *gin.Context) {
	titles, err := h.userRepo.ListJobTitles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, titles))
}
