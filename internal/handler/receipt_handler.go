package handler

import (
	"net/http"
	"os"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/storage"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReceiptHandler struct {
	receipts storage.ReceiptStore
}

func NewReceiptHandler(receipts storage.ReceiptStore) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

func (h *ReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/receipts/:key",
		middleware.RequireRole(model.RoleEmployee, model.RoleApprover, model.RoleAdmin),
		h.Download)
}

// Download streams a stored receipt file
// @Summary      Download a receipt
// @Tags         receipts
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        key path string true "Receipt key"
// @Success      200 {file} binary
// @Failure      404 {object} response.Response
// @Router       /api/receipts/{key} [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	fullPath, err := h.receipts.Resolve(c.Param("key"))
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "receipt not found"))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid receipt key"))
		return
	}
	c.File(fullPath)
}
