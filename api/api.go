// Package api wires the intake API: an Echo server exposing item
// creation, item/alias lookup, the provider roster, member-item expansion
// jobs, and collection CRUD/export, built the same way this codebase's
// existing HTTP server package constructs one (Logger/Recover/BodyLimit/
// CORS/RequestID/RateLimiter middleware, DefaultServerConfig, graceful
// shutdown).
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	httpkit "altimpact.dev/http"
	"altimpact.dev/progress"
	"altimpact.dev/provider"
	"altimpact.dev/store"
)

// API holds every collaborator the façade's handlers need; it never touches
// the Work Queue directly, since intake only creates items and leaves
// admission to the Orchestrator's poll loop.
type API struct {
	Store    store.Store
	Registry progress.Registry
	Roster   []provider.Provider
	Logger   *logrus.Logger

	jobs *memberItemsJobs
}

// New builds an API bound to its collaborators.
func New(st store.Store, registry progress.Registry, roster []provider.Provider, logger *logrus.Logger) *API {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &API{Store: st, Registry: registry, Roster: roster, Logger: logger, jobs: newMemberItemsJobs()}
}

// Version is the service banner returned by GET /; set by the caller (the
// CLI entrypoint) from its own build metadata.
var Version = "dev"

// NewServer builds a fully-routed Echo instance around a.
func NewServer(a *API, cfg httpkit.ServerConfig) *echo.Echo {
	e := httpkit.NewEchoServer(cfg)
	e.HTTPErrorHandler = httpkit.CustomHTTPErrorHandler
	e.Use(httpkit.SecurityHeadersMiddleware())
	e.Use(httpkit.JSONContentTypeMiddleware())
	e.Use(OptionalAPIKeyAuth(a.Store))

	e.GET("/", a.banner)
	e.GET("/health", httpkit.HealthCheckHandler("altimpact", Version))

	e.POST("/item/:ns/:nid", a.createItem)
	e.POST("/items", a.createItems)
	e.GET("/item/:tiid", a.getItem)
	e.GET("/tiid/:ns/:nid", a.lookupTIID)

	e.GET("/provider", a.listProviders)
	e.POST("/provider/:name/memberitems", a.startMemberItems)
	e.GET("/provider/:name/memberitems/:handle", a.pollMemberItems)

	e.POST("/collection", a.createCollection)
	e.GET("/collection/:cid", a.getCollection)
	e.POST("/collection/:cid", a.resubmitCollection)

	return e
}

func (a *API) banner(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"service": "altimpact", "version": Version})
}

func (a *API) providerByName(name string) (provider.Provider, bool) {
	for _, p := range a.Roster {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
