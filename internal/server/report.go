package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/billflow/internal/report/domain"
)

// reportRange reads the inclusive startDate/endDate pair shared by the
// range-bound reports.
func reportRange(c *gin.Context) (reportdomain.RangeRequest, bool) {
	start, err := parseRequiredTime(c.Query("startDate"), false)
	if err != nil {
		AbortWithError(c, newValidationError("startDate", "invalid_start_date", "startDate is required and must be a date"))
		return reportdomain.RangeRequest{}, false
	}
	end, err := parseRequiredTime(c.Query("endDate"), true)
	if err != nil {
		AbortWithError(c, newValidationError("endDate", "invalid_end_date", "endDate is required and must be a date"))
		return reportdomain.RangeRequest{}, false
	}
	return reportdomain.RangeRequest{Start: start, End: end}, true
}

func (s *Server) GetSalesSummary(c *gin.Context) {
	req, ok := reportRange(c)
	if !ok {
		return
	}

	resp, err := s.reportSvc.SalesSummary(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductPerformance(c *gin.Context) {
	req, ok := reportRange(c)
	if !ok {
		return
	}

	resp, err := s.reportSvc.ProductPerformance(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFinancialSummary(c *gin.Context) {
	req, ok := reportRange(c)
	if !ok {
		return
	}

	resp, err := s.reportSvc.FinancialSummary(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInventoryStatus(c *gin.Context) {
	resp, err := s.reportSvc.InventoryStatus(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TraceBatterySerial(c *gin.Context) {
	resp, err := s.reportSvc.BatterySerialTrace(c.Request.Context(), c.Param("serialNumber"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
