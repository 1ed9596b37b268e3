package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
}

var (
	pubRoutes []route
	apiRoutes []route
)

// Public /api routes.

func PubGET(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, route{http.MethodGet, path, h})
}

func PubPOST(path string, h echo.HandlerFunc) {
	pubRoutes = append(pubRoutes, route{http.MethodPost, path, h})
}

// Authenticated /api/admin routes.

func ApiGET(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, route{http.MethodGet, path, h})
}

func ApiPOST(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, route{http.MethodPost, path, h})
}

func ApiPUT(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, route{http.MethodPut, path, h})
}

func ApiPATCH(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, route{http.MethodPatch, path, h})
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	apiRoutes = append(apiRoutes, route{http.MethodDelete, path, h})
}
