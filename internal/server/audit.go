package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
)

func (s *Server) ListStockAdjustments(c *gin.Context) {
	var query auditdomain.ListAdjustmentsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.ListAdjustments(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListActivity(c *gin.Context) {
	var query auditdomain.ListActivityRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.User = strings.TrimSpace(query.User)
	query.Contains = strings.TrimSpace(query.Contains)

	resp, err := s.auditSvc.ListActivity(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
