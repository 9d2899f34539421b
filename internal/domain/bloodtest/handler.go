package bloodtest

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Stikerz/numan/internal/platform/apierr"
	"github.com/Stikerz/numan/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/results/", h.ListOrders)
	api.POST("/results/", h.CreateOrder)
	api.GET("/results", h.ListOrders)
	api.POST("/results", h.CreateOrder)
}

type createOrderRequest struct {
	Lab       json.RawMessage `json:"lab"`
	BloodTest []string        `json:"blood_test"`
}

func (h *Handler) ListOrders(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return apierr.Unauthorized("Authentication credentials were not provided.")
	}
	orders, err := h.svc.ListOrders(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return apierr.Unauthorized("Authentication credentials were not provided.")
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return err
		}
		return apierr.Validation("invalid request body")
	}
	labID, err := parseLabID(req.Lab)
	if err != nil {
		return err
	}

	o, err := h.svc.CreateOrder(c.Request().Context(), p.UserID, labID, req.BloodTest)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// parseLabID accepts a JSON integer or a string holding one.
func parseLabID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, apierr.Validation("lab: This field is required.")
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, apierr.Validation("lab: A valid integer is required.")
		}
	} else {
		s = string(raw)
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.Validation("lab: A valid integer is required.")
	}
	return id, nil
}
