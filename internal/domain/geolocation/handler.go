// Package geolocation exposes the IP geolocation lookup over HTTP.
package geolocation

import (
	"context"
	"net/http"
	"net/netip"

	"github.com/labstack/echo/v4"

	"github.com/Stikerz/numan/internal/platform/ipgeo"
)

// Locator resolves a validated address. *ipgeo.Client implements it.
type Locator interface {
	Lookup(ctx context.Context, ip netip.Addr) (*ipgeo.Location, error)
}

type Handler struct {
	locator Locator
}

func NewHandler(locator Locator) *Handler {
	return &Handler{locator: locator}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/geolocation/", h.Lookup)
	api.GET("/geolocation", h.Lookup)
}

// Lookup answers GET /geolocation/?ip=. A missing or malformed ip is a 400.
func (h *Handler) Lookup(c echo.Context) error {
	addr, err := ipgeo.ValidateIP(c.QueryParam("ip"))
	if err != nil {
		return err
	}
	loc, err := h.locator.Lookup(c.Request().Context(), addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loc)
}
