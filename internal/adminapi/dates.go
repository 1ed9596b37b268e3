package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/bakeshop/internal/availability"
	"github.com/talkincode/bakeshop/internal/webserver"
	"go.uber.org/zap"
)

func registerDateRoutes() {
	webserver.ApiGET("/available-dates", listDates)
	webserver.ApiPOST("/available-dates", createDate)
	webserver.ApiPUT("/available-dates/:id", updateDate)
	webserver.ApiDELETE("/available-dates/:id", deleteDate)
}

type datePayload struct {
	Type       string `json:"type" form:"type"`
	Date       string `json:"date" form:"date"`
	TotalSlots int    `json:"totalSlots" form:"totalSlots"`
	Notes      string `json:"notes" form:"notes"`
}

func dateError(c echo.Context, err error) error {
	switch err {
	case availability.ErrDateNotFound:
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Date not found", nil)
	case availability.ErrDateExists:
		return fail(c, http.StatusConflict, "ALREADY_EXISTS", err.Error(), nil)
	case availability.ErrDateInPast,
		availability.ErrInvalidDate,
		availability.ErrInvalidSlots,
		availability.ErrInvalidType:
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update dates", err.Error())
	}
}

func listDates(c echo.Context) error {
	repo := availability.NewGormRepository(GetDB(c))
	dates, err := repo.List(c.Request().Context(), false)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query dates", err.Error())
	}
	return ok(c, dates)
}

func createDate(c echo.Context) error {
	var payload datePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse date", nil)
	}
	repo := availability.NewGormRepository(GetDB(c))
	date, err := repo.Create(c.Request().Context(),
		payload.Type, payload.Date, payload.TotalSlots, payload.Notes)
	if err != nil {
		return dateError(c, err)
	}
	zap.L().Info("available date created",
		zap.String("type", date.Type), zap.String("date", date.Date),
		zap.String("operator", currentOperator(c)))
	return ok(c, date)
}

func updateDate(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid date ID", nil)
	}
	var in availability.DateUpdate
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse date", nil)
	}
	repo := availability.NewGormRepository(GetDB(c))
	date, err := repo.Update(c.Request().Context(), id, in)
	if err != nil {
		return dateError(c, err)
	}
	return ok(c, date)
}

func deleteDate(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid date ID", nil)
	}
	repo := availability.NewGormRepository(GetDB(c))
	if err := repo.Delete(c.Request().Context(), id); err != nil {
		return dateError(c, err)
	}
	return ok(c, "deleted")
}
