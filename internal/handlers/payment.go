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
	"github.com/fathurrizqi/tokolaptop/internal/service/payment"
)

type PaymentHandler struct {
	Service  *payment.Service
	Producer *mykafka.Producer
}

func (h *PaymentHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "payment_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *PaymentHandler) CreateSession(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	var req struct {
		OrderID uint `json:"order_id" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.Service.CreateSession(c.Request().Context(), caller, req.OrderID)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":         "payment_session_created",
		"orderID":      req.OrderID,
		"order_ref":    session.OrderRef,
		"gross_amount": session.GrossAmount,
	})

	return c.JSON(http.StatusOK, session)
}

func (h *PaymentHandler) Confirm(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	updated, err := h.Service.Confirm(c.Request().Context(), caller, uint(id))
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":           "payment_completed",
		"orderID":        updated.ID,
		"payment_status": updated.PaymentStatus,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "payment completed",
		"order":   updated,
	})
}
