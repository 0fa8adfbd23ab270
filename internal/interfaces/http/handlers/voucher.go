// internal/interfaces/http/handlers/voucher.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-client/internal/domain/promotion"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
)

// VoucherRepository reads and removes vouchers
type VoucherRepository interface {
	Vouchers(ctx context.Context, f promotion.Filter) ([]promotion.Voucher, int64, error)
	DeleteVoucher(ctx context.Context, scope postgres.Scope, id string) error
}

// VoucherHandler handles voucher endpoints
type VoucherHandler struct {
	repo   VoucherRepository
	logger logrus.FieldLogger
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(repo VoucherRepository, logger logrus.FieldLogger) *VoucherHandler {
	return &VoucherHandler{repo: repo, logger: logger}
}

// GetVouchers handles GET /vouchers?storeId&active
func (h *VoucherHandler) GetVouchers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	f := promotion.Filter{
		StoreID:    c.Query("storeId"),
		ActiveOnly: c.Query("active") == "true",
		Page:       page,
		Limit:      limit,
	}

	vouchers, total, err := h.repo.Vouchers(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, vouchers, postgres.NewPage(f.Page, f.Limit), total)
}

// DeleteVoucher handles DELETE /vouchers/:id
func (h *VoucherHandler) DeleteVoucher(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.repo.DeleteVoucher(c.Request.Context(), scope, id); err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"voucher_id": id, "user_id": scope.UserID}).Info("voucher deleted")
	respondMessage(c, http.StatusOK, "Voucher deleted successfully")
}
