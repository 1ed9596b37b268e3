package webserver

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/talkincode/bakeshop/internal/app"
	"go.uber.org/zap"
)

const (
	ContextDBKey  = "bakeshop_db"
	ContextAppKey = "bakeshop_app"
	// AdminTokenCookie carries the admin JWT for browser sessions; the
	// Authorization header is also accepted.
	AdminTokenCookie = "admin_token"
)

var server *WebServer

type WebServer struct {
	appCtx app.AppContext
	root   *echo.Echo
}

// Init builds the HTTP server: recovery, body limits, context injection,
// static upload serving, and the public and JWT-gated admin API groups.
// Routes registered through the package-level helpers before Init are
// attached here.
func Init(appCtx app.AppContext) *WebServer {
	s := &WebServer{appCtx: appCtx, root: echo.New()}
	s.root.Pre(middleware.RemoveTrailingSlash())
	s.root.Use(middleware.Recover())
	s.root.Use(middleware.BodyLimit("16M"))
	s.root.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextDBKey, appCtx.DB())
			c.Set(ContextAppKey, appCtx)
			return next(c)
		}
	})
	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		zap.L().Error("http error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err))
		_ = c.JSON(code, map[string]interface{}{"code": code, "message": err.Error()})
	}

	cfg := appCtx.Config()
	s.root.Static("/uploads", filepath.Join(cfg.System.Workdir, "uploads"))

	pub := s.root.Group("/api")
	admin := s.root.Group("/api/admin")
	admin.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.Web.Secret),
		TokenLookup: "header:Authorization:Bearer ,cookie:" + AdminTokenCookie,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/login")
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		},
	}))

	for _, r := range pubRoutes {
		pub.Add(r.method, r.path, r.handler)
	}
	for _, r := range apiRoutes {
		admin.Add(r.method, r.path, r.handler)
	}

	server = s
	return s
}

// Instance returns the initialized server.
func Instance() *WebServer {
	return server
}

func (s *WebServer) Start() error {
	cfg := s.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("starting web server", zap.String("listen", addr))
	err := s.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "web server start")
	}
	return nil
}

// CreateAdminToken signs an admin session token for the given operator.
func CreateAdminToken(secret, username, level string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"usr": username,
		"lvl": level,
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
