// Package web serves the public landing page.
package web

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed index.html
var indexHTML string

func RegisterRoutes(e *echo.Echo) {
	e.GET("/", Index)
}

func Index(c echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}
