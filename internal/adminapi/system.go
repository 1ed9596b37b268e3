package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/bakeshop/internal/app"
	"github.com/talkincode/bakeshop/internal/domain"
	"github.com/talkincode/bakeshop/internal/webserver"
	"github.com/talkincode/bakeshop/pkg/metrics"
	"go.uber.org/zap"
)

func registerSystemRoutes() {
	webserver.ApiGET("/system/backup", downloadBackup)
	webserver.ApiPOST("/system/backup", triggerBackupSnapshot)
	webserver.ApiGET("/system/metrics/:name", queryMetrics)
	webserver.ApiGET("/system/oprlogs", listOprLogs)
	webserver.ApiGET("/system/settings", listSettings)
	webserver.ApiPUT("/system/settings", updateSetting)
}

// downloadBackup streams a full SQL dump of the database.
func downloadBackup(c echo.Context) error {
	appCtx, isApp := GetAppContext(c).(*app.Application)
	if !isApp {
		return fail(c, http.StatusInternalServerError, "SERVICE_ERROR", "Backup unavailable", nil)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/sql")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="bakeshop_backup_%s.sql"`, time.Now().Format("20060102_150405")))
	c.Response().WriteHeader(http.StatusOK)
	if err := appCtx.WriteBackup(c.Response().Writer); err != nil {
		zap.L().Error("backup stream failed", zap.Error(err))
		return err
	}
	return nil
}

// triggerBackupSnapshot writes a backup file into the workdir backup
// directory, same as the nightly job.
func triggerBackupSnapshot(c echo.Context) error {
	appCtx, isApp := GetAppContext(c).(*app.Application)
	if !isApp {
		return fail(c, http.StatusInternalServerError, "SERVICE_ERROR", "Backup unavailable", nil)
	}
	path, err := appCtx.RunBackupSnapshot()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "BACKUP_ERROR", "Backup failed", err.Error())
	}
	return ok(c, map[string]interface{}{"path": path})
}

func queryMetrics(c echo.Context) error {
	name := c.Param("name")
	end := time.Now()
	start := end.Add(-1 * time.Hour)
	if hours, err := strconv.Atoi(c.QueryParam("hours")); err == nil && hours > 0 && hours <= 24*7 {
		start = end.Add(-time.Duration(hours) * time.Hour)
	}
	points, err := metrics.Query(name, start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to query metrics", err.Error())
	}
	return ok(c, points)
}

func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)
	query := GetDB(c).Model(&domain.SysOprLog{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query logs", err.Error())
	}
	var logs []domain.SysOprLog
	err := query.Order("opt_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query logs", err.Error())
	}
	return paged(c, logs, total, page, pageSize)
}

func listSettings(c echo.Context) error {
	var settings []domain.SysConfig
	if err := GetDB(c).Order("type, sort").Find(&settings).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}
	return ok(c, settings)
}

type settingPayload struct {
	Type  string `json:"type" form:"type"`
	Name  string `json:"name" form:"name"`
	Value string `json:"value" form:"value"`
}

func updateSetting(c echo.Context) error {
	var payload settingPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse setting", nil)
	}
	if payload.Type == "" || payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Setting type and name are required", nil)
	}
	appCtx, isApp := GetAppContext(c).(*app.Application)
	if !isApp {
		return fail(c, http.StatusInternalServerError, "SERVICE_ERROR", "Settings unavailable", nil)
	}
	if err := appCtx.ConfigMgr().SetValue(payload.Type, payload.Name, payload.Value); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save setting", err.Error())
	}
	return ok(c, "saved")
}
