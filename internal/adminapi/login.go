package adminapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/talkincode/bakeshop/internal/domain"
	"github.com/talkincode/bakeshop/internal/webserver"
	"github.com/talkincode/bakeshop/pkg/common"
	"go.uber.org/zap"
)

const (
	adminTokenTTL    = 24 * time.Hour
	loginMaxAttempts = 5
	loginWindow      = 15 * time.Minute
)

type loginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// loginLimiter counts failed attempts per client IP inside a sliding
// window. Successful logins clear the counter.
type loginLimiter struct {
	sync.Mutex
	attempts map[string][]time.Time
}

var limiter = &loginLimiter{attempts: make(map[string][]time.Time)}

func (l *loginLimiter) blocked(ip string) bool {
	l.Lock()
	defer l.Unlock()
	cutoff := time.Now().Add(-loginWindow)
	recent := l.attempts[ip][:0]
	for _, t := range l.attempts[ip] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	l.attempts[ip] = recent
	return len(recent) >= loginMaxAttempts
}

func (l *loginLimiter) record(ip string) {
	l.Lock()
	defer l.Unlock()
	l.attempts[ip] = append(l.attempts[ip], time.Now())
}

func (l *loginLimiter) clear(ip string) {
	l.Lock()
	defer l.Unlock()
	delete(l.attempts, ip)
}

func registerLoginRoutes() {
	webserver.ApiPOST("/login", adminLogin)
	webserver.ApiPOST("/logout", adminLogout)
	webserver.ApiGET("/me", adminMe)
}

func adminLogin(c echo.Context) error {
	ip := c.RealIP()
	if limiter.blocked(ip) {
		return fail(c, http.StatusTooManyRequests, "RATE_LIMITED",
			"Too many login attempts, try again later", nil)
	}

	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login request", nil)
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}

	var opr domain.SysOpr
	err := GetDB(c).Where("username = ? and status = ?", payload.Username, common.ENABLED).First(&opr).Error
	if err != nil || !common.CheckPassword(opr.Password, payload.Password) {
		limiter.record(ip)
		zap.L().Warn("admin login failed", zap.String("username", payload.Username), zap.String("ip", ip))
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}
	limiter.clear(ip)

	secret := GetAppContext(c).Config().Web.Secret
	token, err := webserver.CreateAdminToken(secret, opr.Username, opr.Level, adminTokenTTL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to create session token", nil)
	}

	c.SetCookie(&http.Cookie{
		Name:     webserver.AdminTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(adminTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	db := GetDB(c)
	db.Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", time.Now())
	db.Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   opr.Username,
		OprIp:     ip,
		OptAction: "login",
		OptDesc:   "admin login",
		OptTime:   time.Now(),
	})

	return ok(c, map[string]interface{}{
		"token":    token,
		"username": opr.Username,
		"level":    opr.Level,
	})
}

func adminLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     webserver.AdminTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return ok(c, "logged out")
}

func adminMe(c echo.Context) error {
	token, ok2 := c.Get("user").(*jwt.Token)
	if !ok2 {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "No session", nil)
	}
	claims := token.Claims.(jwt.MapClaims)
	return ok(c, map[string]interface{}{
		"username": claims["usr"],
		"level":    claims["lvl"],
	})
}

// currentOperator returns the username from the request token, for audit
// fields.
func currentOperator(c echo.Context) string {
	if token, ok2 := c.Get("user").(*jwt.Token); ok2 {
		if claims, ok3 := token.Claims.(jwt.MapClaims); ok3 {
			if usr, ok4 := claims["usr"].(string); ok4 {
				return usr
			}
		}
	}
	return "admin"
}
