package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	adjustmentdomain "github.com/smallbiznis/apotek/internal/adjustment/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
)

func (s *Server) CreateMedicine(c *gin.Context) {
	var req inventorydomain.CreateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.User = actingUser(c)

	resp, err := s.inventorySvc.CreateMedicine(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMedicines(c *gin.Context) {
	var query inventorydomain.ListMedicinesRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListLowStock(c *gin.Context) {
	resp, err := s.inventorySvc.LowStock(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMedicine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.inventorySvc.Get(c.Request.Context(), inventorydomain.MedicineID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) EditMedicine(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req adjustmentdomain.EditMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.MedicineID = inventorydomain.MedicineID(id)
	req.User = actingUser(c)

	ctx := c.Request.Context()
	changed, err := s.adjustmentSvc.EditMedicine(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	medicine, err := s.inventorySvc.Get(ctx, req.MedicineID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": medicine, "changed": changed})
}

func (s *Server) AdjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req adjustmentdomain.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.MedicineID = inventorydomain.MedicineID(id)
	req.User = actingUser(c)

	adjustmentID, err := s.adjustmentSvc.AdjustStock(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"adjustment_id": adjustmentID}})
}

func (s *Server) MoveStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req adjustmentdomain.MoveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.MedicineID = inventorydomain.MedicineID(id)
	req.User = actingUser(c)

	adjustmentID, err := s.adjustmentSvc.MoveStock(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"adjustment_id": adjustmentID}})
}
