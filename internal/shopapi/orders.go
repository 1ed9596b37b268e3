package shopapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"github.com/talkincode/bakeshop/internal/ordering"
	"github.com/talkincode/bakeshop/pkg/metrics"
	"go.uber.org/zap"
)

const maxProofSize = 5 << 20

// submitOrder accepts the multipart order form: customer fields, the cart
// JSON, the verification slider value, and the payment proof image. The
// proof is staged to disk before validation; the ordering service removes
// it again when the order does not commit.
func (h *Handler) submitOrder(c echo.Context) error {
	fh, err := c.FormFile("paymentProof")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Payment proof is required")
	}
	if fh.Size > maxProofSize {
		return echo.NewHTTPError(http.StatusBadRequest, "Payment proof exceeds 5MB limit")
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "Payment proof must be an image")
	}

	proofName := fmt.Sprintf("payment-%d-%s%s",
		time.Now().UnixMilli(), random.String(8), filepath.Ext(fh.Filename))
	proofPath := filepath.Join(h.uploadsDir, proofName)
	if err := stageProof(fh, proofPath); err != nil {
		zap.L().Error("payment proof staging failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store payment proof")
	}

	in := ordering.Submission{
		CustomerName:      c.FormValue("customerName"),
		CustomerEmail:     c.FormValue("customerEmail"),
		CustomerPhone:     c.FormValue("customerPhone"),
		CustomerAddress:   c.FormValue("customerAddress"),
		CustomerInstagram: c.FormValue("customerInstagram"),
		CustomerNotes:     c.FormValue("customerNotes"),
		DeliveryDate:      c.FormValue("deliveryDate"),
		DeliveryType:      c.FormValue("deliveryType"),
		DeliveryFee:       parseFloatField(c, "deliveryFee"),
		Subtotal:          parseFloatField(c, "subtotal"),
		Total:             parseFloatField(c, "total"),
		CartJSON:          c.FormValue("cartItems"),
		SliderValue:       c.FormValue("sliderValue"),
		ProofName:         proofName,
		ProofPath:         proofPath,
	}

	order, err := h.orders.SubmitOrder(c.Request().Context(), in)
	if se, isStock := ordering.AsStockError(err); isStock {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":     se.Error(),
			"available": se.Available,
		})
	}
	if ordering.IsValidationError(err) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		zap.L().Error("order submission failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to submit order")
	}

	metrics.IncrCounter("bakeshop_orders", 1)
	zap.L().Info("order submitted",
		zap.String("order_id", order.ID),
		zap.String("customer", order.CustomerName),
		zap.Float64("total", order.Total))
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"orderId": order.ID,
		"status":  order.Status,
	})
}

func stageProof(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}
