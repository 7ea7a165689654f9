package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes fixtures created by end-to-end runs: clients named
// with prefix together with their invoices, then unreferenced products and
// suppliers with the same prefix.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	like := prefix + "%"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var clientIDs []int64
		if err := tx.Table("clients").
			Select("id").
			Where("name LIKE ?", like).
			Scan(&clientIDs).Error; err != nil {
			return err
		}

		if len(clientIDs) > 0 {
			if err := tx.Exec(
				`DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE client_id IN ?)`, clientIDs,
			).Error; err != nil {
				return err
			}
			if err := tx.Exec(
				`DELETE FROM invoices WHERE client_id IN ?`, clientIDs,
			).Error; err != nil {
				return err
			}
			if err := tx.Exec(
				`DELETE FROM clients WHERE id IN ?`, clientIDs,
			).Error; err != nil {
				return err
			}
		}

		if err := tx.Exec(
			`DELETE FROM products WHERE name LIKE ? AND id NOT IN (SELECT product_id FROM invoice_items)`, like,
		).Error; err != nil {
			return err
		}
		return tx.Exec(
			`DELETE FROM suppliers WHERE name LIKE ? AND id NOT IN (SELECT supplier_id FROM products WHERE supplier_id IS NOT NULL)`, like,
		).Error
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
