package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/bakeshop/internal/domain"
	"github.com/talkincode/bakeshop/internal/webserver"
	"gorm.io/gorm/clause"
)

func registerLimitRoutes() {
	webserver.ApiGET("/product-limits", listLimits)
	webserver.ApiPUT("/product-limits", putLimits)
}

func listLimits(c echo.Context) error {
	var limits []domain.ProductLimit
	if err := GetDB(c).Find(&limits).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query limits", err.Error())
	}
	return ok(c, limits)
}

// putLimits merges the submitted map into the stored limits. A value of
// zero or below removes the limit for that product.
func putLimits(c echo.Context) error {
	var payload map[string]int
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse limits", nil)
	}

	db := GetDB(c)
	operator := currentOperator(c)
	for productID, max := range payload {
		if productID == "" {
			continue
		}
		if max <= 0 {
			if err := db.Delete(&domain.ProductLimit{}, "product_id = ?", productID).Error; err != nil {
				return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove limit", err.Error())
			}
			continue
		}
		limit := domain.ProductLimit{
			ProductID:   productID,
			MaxQuantity: max,
			UpdatedBy:   operator,
			UpdatedAt:   time.Now(),
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"max_quantity", "updated_by", "updated_at"}),
		}).Create(&limit).Error
		if err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save limit", err.Error())
		}
	}

	var limits []domain.ProductLimit
	if err := db.Find(&limits).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query limits", err.Error())
	}
	return ok(c, limits)
}
