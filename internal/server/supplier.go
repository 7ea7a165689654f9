package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
)

type supplierRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (r supplierRequest) toDomain() supplierdomain.SupplierRequest {
	return supplierdomain.SupplierRequest{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.TrimSpace(r.Email),
		Phone:   strings.TrimSpace(r.Phone),
		Address: strings.TrimSpace(r.Address),
	}
}

func (s *Server) CreateSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.supplierSvc.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.supplierSvc.Update(c.Request.Context(), supplierdomain.UpdateSupplierRequest{
		ID:              strings.TrimSpace(c.Param("id")),
		SupplierRequest: req.toDomain(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSupplier(c *gin.Context) {
	if err := s.supplierSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListSuppliers(c *gin.Context) {
	resp, err := s.supplierSvc.List(c.Request.Context(), supplierdomain.ListSupplierRequest{
		Name: strings.TrimSpace(c.Query("name")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSupplierByID(c *gin.Context) {
	resp, err := s.supplierSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
