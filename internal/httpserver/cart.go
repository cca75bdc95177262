package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/miapp/shop/internal/logging"
	"github.com/miapp/shop/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  uint   `json:"quantity"  validate:"required,min=1"`
}

type updateQuantityRequest struct {
	Quantity uint `json:"quantity" validate:"required,min=1"`
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	ownerID, err := userIDFromContext(c)
	if err != nil {
		l.Error("get_cart_error", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	cart, err := h.Svc.GetCart(ctx, ownerID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	ownerID, err := userIDFromContext(c)
	if err != nil {
		l.Error("add_to_cart_error", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "productId and quantity >= 1 required"})
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	cart, err := h.Svc.AddItem(ctx, ownerID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "productId and quantity >= 1 required"})
		case errors.Is(err, service.ErrNotFound):
			l.Warn("add_to_cart_not_found", "status", 404)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		default:
			l.Error("add_to_cart_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	l.Info("item_added_to_cart")
	return c.JSON(http.StatusCreated, cart)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	ownerID, err := userIDFromContext(c)
	if err != nil {
		l.Error("update_quantity_error", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be at least 1"})
	}

	cart, err := h.Svc.UpdateQuantity(ctx, ownerID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_quantity_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be at least 1"})
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_quantity_not_found", "status", 404)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not in cart"})
		default:
			l.Error("update_quantity_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	ownerID, err := userIDFromContext(c)
	if err != nil {
		l.Error("remove_from_cart_error", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	if err := h.Svc.RemoveItem(ctx, ownerID, productID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("remove_from_cart_not_found", "status", 404)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not in cart"})
		}
		l.Error("remove_from_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	l.Info("item_removed_from_cart")
	return c.JSON(http.StatusOK, echo.Map{"message": "item removed"})
}
