package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fathurrizqi/tokolaptop/internal/auth"
	"github.com/fathurrizqi/tokolaptop/internal/mykafka"
	"github.com/fathurrizqi/tokolaptop/internal/service/order"
)

type OrderHandler struct {
	Service  *order.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	views, err := h.Service.List(c.Request().Context(), caller)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": views})
}

func (h *OrderHandler) UpdateShipping(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status         string `json:"status" validate:"required"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updated, err := h.Service.UpdateShipping(c.Request().Context(), caller, uint(id), req.Status, req.TrackingNumber)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":            "order_shipping_updated",
		"orderID":         updated.ID,
		"shipping_status": updated.ShippingStatus,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "shipping status updated",
		"order":   updated,
	})
}
