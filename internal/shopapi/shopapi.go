// Package shopapi exposes the public storefront surface: the catalog,
// available dates, per-product limits, stock checks, and order submission.
package shopapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/bakeshop/internal/availability"
	"github.com/talkincode/bakeshop/internal/catalog"
	"github.com/talkincode/bakeshop/internal/domain"
	"github.com/talkincode/bakeshop/internal/ordering"
	"github.com/talkincode/bakeshop/internal/webserver"
	"gorm.io/gorm"
)

type Handler struct {
	orders     *ordering.Service
	uploadsDir string
}

// Init registers the public routes. The ordering service is shared with
// the event subscribers; everything else is request-scoped.
func Init(orders *ordering.Service, uploadsDir string) {
	h := &Handler{orders: orders, uploadsDir: uploadsDir}

	webserver.PubGET("/products", h.listProducts)
	webserver.PubGET("/available-dates", h.listDates)
	webserver.PubGET("/product-limits", h.listLimits)
	webserver.PubPOST("/validate-stock", h.validateStock)
	webserver.PubGET("/stock/:productId", h.getStock)
	webserver.PubPOST("/orders", h.submitOrder)
	webserver.PubGET("/orders/:orderId", h.getOrder)
}

func getDB(c echo.Context) *gorm.DB {
	return c.Get(webserver.ContextDBKey).(*gorm.DB)
}

func (h *Handler) listProducts(c echo.Context) error {
	repo := catalog.NewGormRepository(getDB(c))
	products, err := repo.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load products")
	}
	return c.JSON(http.StatusOK, catalog.ToViews(products))
}

// listDates returns only future dates with remaining slots; the admin
// surface sees the full history.
func (h *Handler) listDates(c echo.Context) error {
	repo := availability.NewGormRepository(getDB(c))
	dates, err := repo.List(c.Request().Context(), true)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dates")
	}
	open := make([]domain.AvailableDate, 0, len(dates))
	for _, d := range dates {
		if d.RemainingSlots > 0 {
			open = append(open, d)
		}
	}
	return c.JSON(http.StatusOK, open)
}

func (h *Handler) listLimits(c echo.Context) error {
	var limits []domain.ProductLimit
	if err := getDB(c).Find(&limits).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load limits")
	}
	out := make(map[string]int, len(limits))
	for _, l := range limits {
		out[l.ProductID] = l.MaxQuantity
	}
	return c.JSON(http.StatusOK, out)
}

type stockCheckPayload struct {
	ProductID string `json:"productId" form:"productId"`
	Quantity  int    `json:"quantity" form:"quantity"`
}

func (h *Handler) validateStock(c echo.Context) error {
	var payload stockCheckPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	err := h.orders.ValidateStock(c.Request().Context(), payload.ProductID, payload.Quantity)
	if se, isStock := ordering.AsStockError(err); isStock {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"valid":     false,
			"message":   se.Error(),
			"available": se.Available,
		})
	}
	if ordering.IsValidationError(err) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Stock check failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"valid": true})
}

func (h *Handler) getStock(c echo.Context) error {
	stock, limited, err := h.orders.GetStock(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Stock check failed")
	}
	if !limited {
		return c.JSON(http.StatusOK, map[string]interface{}{"stock": nil, "unlimited": true})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"stock": stock, "unlimited": false})
}

func (h *Handler) getOrder(c echo.Context) error {
	view, err := h.orders.GetOrder(c.Request().Context(), c.Param("orderId"))
	if err == ordering.ErrOrderNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "Order not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load order")
	}
	return c.JSON(http.StatusOK, view)
}

func parseFloatField(c echo.Context, name string) float64 {
	v, _ := strconv.ParseFloat(c.FormValue(name), 64)
	return v
}
