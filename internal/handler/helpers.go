package handler

import (
	"backend/internal/middleware"
	"backend/pkg/apperr"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status via the apperr
// taxonomy and writes the standard error envelope.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// currentUserID reads the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) string {
	id, _ := c.Get(middleware.CtxUserID)
	idStr, _ := id.(string)
	return idStr
}
