package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miapp/shop/internal/middleware"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CartHandler    *CartHTTP
	ProductHandler *ProductHTTP
	AuthMw         *middleware.BearerAuth
}

// Register wires the public surface. Paths follow the original API the
// frontend consumes.
func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewRequestValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/registrar", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)

	e.GET("/productos", d.ProductHandler.GetProducts)
	if d.ProductHandler.Search != nil {
		e.GET("/productos/buscar", d.ProductHandler.SearchProducts)
	}

	private := e.Group("", d.AuthMw.RequireAuth)

	private.GET("/perfil", d.AuthHandler.Profile)

	private.GET("/carrito", d.CartHandler.GetCart)
	private.POST("/carrito", d.CartHandler.AddToCart)
	private.PUT("/carrito/:productId", d.CartHandler.UpdateQuantity)
	private.DELETE("/carrito/:productId", d.CartHandler.RemoveFromCart)
}
