// Package adminapi exposes the authenticated management surface: operator
// sessions, product and date administration, order handling and exports,
// and system maintenance endpoints.
package adminapi

// Init registers every admin route with the web server. Call before
// webserver.Init.
func Init() {
	registerLoginRoutes()
	registerProductRoutes()
	registerOrderRoutes()
	registerDateRoutes()
	registerLimitRoutes()
	registerSystemRoutes()
}
