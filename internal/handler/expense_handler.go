package handler

import (
	"io"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	{
		expenses.POST("", middleware.RequireRole(model.RoleEmployee, model.RoleAdmin), h.Submit)
		expenses.GET("/mine", middleware.RequireRole(model.RoleEmployee, model.RoleApprover, model.RoleAdmin), h.ListMine)
	}
}

// Submit creates an expense report and its approval chain
// @Summary      Submit an expense report
// @Tags         expenses
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title formData string true "Title"
// @Param        amount formData string true "Amount (positive decimal)"
// @Param        description formData string false "Description"
// @Param        receipt formData file false "Receipt attachment"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Failure      422 {object} response.Response
// @Router       /api/expenses [post]
func (h *ExpenseHandler) Submit(c *gin.Context) {
	req := service.SubmitExpenseRequest{
		Title:       c.PostForm("title"),
		Amount:      c.PostForm("amount"),
		Description: c.PostForm("description"),
	}

	if fileHeader, err := c.FormFile("receipt"); err == nil && fileHeader.Size > 0 {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "failed to read receipt"))
			return
		}
		defer file.Close()

		content, readErr := io.ReadAll(file)
		if readErr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "failed to read receipt"))
			return
		}
		req.Receipt = content
		req.ReceiptName = fileHeader.Filename
	}

	expense, err := h.expenseService.Submit(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// ListMine returns the caller's expense reports with their approval chains
// @Summary      List own expense reports
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page"
// @Param        limit query int false "Limit"
// @Success      200 {object} response.Response
// @Router       /api/expenses/mine [get]
func (h *ExpenseHandler) ListMine(c *gin.Context) {
	params := pagination.Parse(c)

	expenses, total, err := h.expenseService.ListBySubmitter(c.Request.Context(), currentUserID(c), params.Offset, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"expenses":   expenses,
		"pagination": pagination.NewMeta(params, total),
	}))
}
