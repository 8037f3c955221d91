package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	refunddomain "github.com/smallbiznis/apotek/internal/refund/domain"
)

func (s *Server) CreateReturn(c *gin.Context) {
	var req refunddomain.AddReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	req.User = actingUser(c)

	resp, err := s.refundSvc.AddReturn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListReturns(c *gin.Context) {
	var query refunddomain.ListReturnsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.refundSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
