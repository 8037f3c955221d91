package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
)

func (s *Server) CreateSale(c *gin.Context) {
	var req saledomain.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.User = actingUser(c)

	resp, err := s.saleSvc.CreateSale(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSales(c *gin.Context) {
	var query saledomain.ListSalesRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.saleSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.saleSvc.Get(c.Request.Context(), saledomain.SaleID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRefundableLines(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	lines, err := s.refundSvc.RefundableLines(c.Request.Context(), saledomain.SaleID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lines})
}
