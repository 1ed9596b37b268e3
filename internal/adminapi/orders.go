package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/talkincode/bakeshop/internal/domain"
	"github.com/talkincode/bakeshop/internal/ordering"
	"github.com/talkincode/bakeshop/internal/webserver"
	"github.com/talkincode/bakeshop/pkg/common"
	"go.uber.org/zap"
)

func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPATCH("/orders/:id/status", updateOrderStatus)
	webserver.ApiGET("/orders/export/excel", exportOrdersExcel)
	webserver.ApiGET("/orders/export/csv", exportOrdersCsv)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	ledger := ordering.NewGormLedger(GetDB(c))
	rows, total, err := ledger.List(c.Request().Context(),
		c.QueryParam("status"), (page-1)*pageSize, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	ledger := ordering.NewGormLedger(GetDB(c))
	order, err := ledger.GetByID(c.Request().Context(), c.Param("id"))
	if err == ordering.ErrOrderNotFound {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load order", err.Error())
	}
	return ok(c, order)
}

type statusPayload struct {
	Status string `json:"status" form:"status"`
}

func updateOrderStatus(c echo.Context) error {
	var payload statusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", nil)
	}
	id := c.Param("id")
	ledger := ordering.NewGormLedger(GetDB(c))
	err := ledger.UpdateStatus(c.Request().Context(), id, strings.ToLower(strings.TrimSpace(payload.Status)))
	switch {
	case ordering.IsValidationError(err):
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
	case err == ordering.ErrOrderNotFound:
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
	}

	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   currentOperator(c),
		OprIp:     c.RealIP(),
		OptAction: "order_status",
		OptDesc:   fmt.Sprintf("order %s -> %s", id, payload.Status),
		OptTime:   time.Now(),
	})
	zap.L().Info("order status updated",
		zap.String("order_id", id), zap.String("status", payload.Status))
	return ok(c, "updated")
}

func loadOrdersForExport(c echo.Context) ([]domain.Order, error) {
	query := GetDB(c).Model(&domain.Order{})
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	var orders []domain.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

var exportHeaders = []string{
	"Order ID", "Customer", "Email", "Phone", "Address", "Instagram",
	"Delivery Date", "Type", "Items", "Subtotal", "Delivery Fee", "Total",
	"Status", "Created At",
}

func exportOrdersExcel(c echo.Context) error {
	orders, err := loadOrdersForExport(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	f := excelize.NewFile()
	sheet := "Orders"
	f.SetSheetName("Sheet1", sheet)
	for i, h := range exportHeaders {
		cell := excelize.ToAlphaString(i) + "1"
		f.SetCellValue(sheet, cell, h)
	}
	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "F", 20)
	f.SetColWidth(sheet, "I", "I", 40)
	f.SetColWidth(sheet, "N", "N", 20)

	for row, o := range orders {
		values := []interface{}{
			o.ID, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
			o.CustomerAddress, o.CustomerInstagram,
			o.DeliveryDate, o.DeliveryType, itemsSummary(o.CartItems),
			o.Subtotal, o.DeliveryFee, o.Total,
			o.Status, o.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell := fmt.Sprintf("%s%d", excelize.ToAlphaString(col), row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="orders_%s.xlsx"`, time.Now().Format("20060102_150405")))
	return f.Write(c.Response().Writer)
}

type orderCsvRow struct {
	ID           string  `csv:"order_id"`
	Customer     string  `csv:"customer"`
	Email        string  `csv:"email"`
	Phone        string  `csv:"phone"`
	DeliveryDate string  `csv:"delivery_date"`
	DeliveryType string  `csv:"delivery_type"`
	Items        string  `csv:"items"`
	Subtotal     float64 `csv:"subtotal"`
	DeliveryFee  float64 `csv:"delivery_fee"`
	Total        float64 `csv:"total"`
	Status       string  `csv:"status"`
	CreatedAt    string  `csv:"created_at"`
}

func exportOrdersCsv(c echo.Context) error {
	orders, err := loadOrdersForExport(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	rows := make([]orderCsvRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderCsvRow{
			ID: o.ID, Customer: o.CustomerName, Email: o.CustomerEmail,
			Phone: o.CustomerPhone, DeliveryDate: o.DeliveryDate,
			DeliveryType: o.DeliveryType, Items: itemsSummary(o.CartItems),
			Subtotal: o.Subtotal, DeliveryFee: o.DeliveryFee, Total: o.Total,
			Status: o.Status, CreatedAt: o.CreatedAt.Format(time.RFC3339),
		})
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="orders_%s.csv"`, time.Now().Format("20060102_150405")))
	return gocsv.Marshal(rows, c.Response().Writer)
}

// itemsSummary flattens the cart snapshot into "Title xN; ..." for
// spreadsheet cells.
func itemsSummary(snapshot string) string {
	items, _, err := ordering.ParseCart(snapshot)
	if err != nil {
		return snapshot
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.EntityID()
		}
		parts = append(parts, fmt.Sprintf("%s x%d", title, item.Count()))
	}
	return strings.Join(parts, "; ")
}
