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
	"github.com/fathurrizqi/tokolaptop/internal/service/nego"
)

type NegotiationHandler struct {
	Service  *nego.Service
	Producer *mykafka.Producer
}

func (h *NegotiationHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "negotiation_events", fmt.Sprint(event["negotiationID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *NegotiationHandler) Create(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	var req struct {
		ProductID  uint    `json:"product_id" validate:"required"`
		OfferPrice float64 `json:"offer_price" validate:"required,gt=0"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	negotiation, err := h.Service.Create(c.Request().Context(), caller, req.ProductID, req.OfferPrice)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":          "negotiation_created",
		"negotiationID": negotiation.ID,
		"userID":        caller.ID,
		"productID":     negotiation.ProductID,
		"offer_price":   negotiation.OfferPrice,
	})

	return c.JSON(http.StatusCreated, echo.Map{"negotiation": negotiation})
}

func (h *NegotiationHandler) List(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	var productID uint
	if s := c.QueryParam("product_id"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		productID = uint(v)
	}

	negotiations, err := h.Service.List(c.Request().Context(), caller, productID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"negotiations": negotiations})
}

func (h *NegotiationHandler) Get(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	negotiation, err := h.Service.Get(c.Request().Context(), caller, uint(id))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, negotiation)
}

func (h *NegotiationHandler) Decide(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	negotiation, err := h.Service.Decide(c.Request().Context(), caller, uint(id), req.Status)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":          "negotiation_decided",
		"negotiationID": negotiation.ID,
		"status":        negotiation.Status,
	})

	return c.JSON(http.StatusOK, echo.Map{"updated": negotiation})
}
