package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
)

type setSupplierActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req directorydomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.User = actingUser(c)

	resp, err := s.directorySvc.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query directorydomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.Query = strings.TrimSpace(query.Query)

	resp, err := s.directorySvc.ListCustomers(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.directorySvc.GetCustomer(c.Request.Context(), directorydomain.CustomerID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req directorydomain.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = directorydomain.CustomerID(id)
	req.User = actingUser(c)

	resp, changed, err := s.directorySvc.UpdateCustomer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "changed": changed})
}

func (s *Server) CreateSupplier(c *gin.Context) {
	var req directorydomain.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.User = actingUser(c)

	resp, err := s.directorySvc.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSuppliers(c *gin.Context) {
	var query directorydomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.Query = strings.TrimSpace(query.Query)

	resp, err := s.directorySvc.ListSuppliers(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.directorySvc.GetSupplier(c.Request.Context(), directorydomain.SupplierID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req directorydomain.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = directorydomain.SupplierID(id)
	req.User = actingUser(c)

	resp, changed, err := s.directorySvc.UpdateSupplier(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "changed": changed})
}

func (s *Server) SetSupplierActive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req setSupplierActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Active == nil {
		AbortWithError(c, newValidationError("active", "required", "active is required"))
		return
	}

	resp, err := s.directorySvc.SetSupplierActive(c.Request.Context(), directorydomain.SupplierID(id), *req.Active, actingUser(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
