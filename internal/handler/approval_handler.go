package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/approvals", middleware.RequireRole(model.RoleApprover, model.RoleAdmin))
	{
		approvals.GET("/queue", h.Queue)
		approvals.GET("/history", h.History)
		approvals.PUT("/steps/:id/approve", h.ApproveStep)
		approvals.PUT("/steps/:id/reject", h.RejectStep)
	}
}

type decisionRequest struct {
	Comment string `json:"comment" binding:"max=500"`
}

// Queue returns the steps currently waiting on the caller
// @Summary      Approval queue
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/approvals/queue [get]
func (h *ApprovalHandler) Queue(c *gin.Context) {
	steps, err := h.approvalService.Queue(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, steps))
}

// History returns the caller's decided steps, most recent first
// @Summary      Approval history
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/approvals/history [get]
func (h *ApprovalHandler) History(c *gin.Context) {
	steps, err := h.approvalService.History(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, steps))
}

// ApproveStep approves the currently active step of an expense
// @Summary      Approve a step
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Step ID"
// @Param        body body decisionRequest false "Optional comment"
// @Success      200 {object} response.Response
// @Failure      403 {object} response.Response
// @Failure      404 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/approvals/steps/{id}/approve [put]
func (h *ApprovalHandler) ApproveStep(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body is fine, the comment is optional
		req.Comment = ""
	}

	if err := h.approvalService.ApproveStep(c.Request.Context(), c.Param("id"), currentUserID(c), req.Comment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "step approved"}))
}

// RejectStep rejects the currently active step and skips the rest of the chain
// @Summary      Reject a step
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Step ID"
// @Param        body body decisionRequest false "Optional comment"
// @Success      200 {object} response.Response
// @Failure      403 {object} response.Response
// @Failure      404 {object} response.Response
// @Failure      409 {object} response.Response
// @Router       /api/approvals/steps/{id}/reject [put]
func (h *ApprovalHandler) RejectStep(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Comment = ""
	}

	if err := h.approvalService.RejectStep(c.Request.Context(), c.Param("id"), currentUserID(c), req.Comment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "step rejected"}))
}
