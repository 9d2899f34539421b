package lab

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/lab/:country/", h.ListLabs)
	api.GET("/lab/:country", h.ListLabs)
}

// ListLabs answers GET /lab/:country/?city=. It is always 200 with a list.
func (h *Handler) ListLabs(c echo.Context) error {
	labs, err := h.svc.FindLabs(c.Request().Context(), c.Param("country"), c.QueryParam("city"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, labs)
}
