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
	"github.com/fathurrizqi/tokolaptop/internal/service/cart"
)

type CartHandler struct {
	Service  *cart.Service
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	views, err := h.Service.ListCart(c.Request().Context(), caller)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": views})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	var req struct {
		ProductID uint `json:"product_id" validate:"required"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item, total, err := h.Service.AddItem(c.Request().Context(), caller, req.ProductID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    caller.ID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"order_item":  item,
		"total_price": total,
	})
}

func (h *CartHandler) UpdateCartItem(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity *int `json:"quantity" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item, total, err := h.Service.UpdateQuantity(c.Request().Context(), caller, uint(id), *req.Quantity)
	if err != nil {
		return httpError(err)
	}

	if item == nil {
		h.publish(c, map[string]any{
			"type":   "cart_item_removed",
			"userID": caller.ID,
			"itemID": id,
		})
		return c.JSON(http.StatusOK, echo.Map{"message": "item deleted", "total_price": total})
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_updated",
		"userID":   caller.ID,
		"itemID":   item.ID,
		"quantity": item.Quantity,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"order_item":  item,
		"total_price": total,
	})
}

func (h *CartHandler) DeleteFromCart(c echo.Context) error {
	caller, err := auth.CallerFrom(c)
	if err != nil {
		return httpError(err)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Service.RemoveItem(c.Request().Context(), caller, uint(id)); err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_item_removed",
		"userID": caller.ID,
		"itemID": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "item deleted"})
}
