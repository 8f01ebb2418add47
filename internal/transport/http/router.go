package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/fathurrizqi/tokolaptop/internal/handlers"
	"github.com/fathurrizqi/tokolaptop/internal/service/token"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	NegoHandler    *handlers.NegotiationHandler
	OrderHandler   *handlers.OrderHandler
	PaymentHandler *handlers.PaymentHandler
	ProfileHandler *handlers.ProfileHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	user := v1.Group("", d.TokenService.AutoRefreshMiddleware)

	user.GET("/profile", d.ProfileHandler.GetProfile)
	user.PUT("/profile", d.ProfileHandler.UpdateProfile)

	user.GET("/cart", d.CartHandler.GetCart)
	user.POST("/cart", d.CartHandler.AddToCart)
	user.PUT("/cart/:id", d.CartHandler.UpdateCartItem)
	user.DELETE("/cart/:id", d.CartHandler.DeleteFromCart)

	user.POST("/negotiations", d.NegoHandler.Create)
	user.GET("/negotiations", d.NegoHandler.List)
	user.GET("/negotiations/:id", d.NegoHandler.Get)

	user.GET("/orders", d.OrderHandler.ListOrders)
	user.PUT("/orders/:id/shipping", d.OrderHandler.UpdateShipping)

	user.POST("/payment", d.PaymentHandler.CreateSession)
	user.POST("/payment/:id/confirm", d.PaymentHandler.Confirm)

	admin := v1.Group("/admin", d.TokenService.AutoRefreshMiddlewareAdmin)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.PUT("/negotiations/:id", d.NegoHandler.Decide)
	admin.GET("/users", d.ProfileHandler.ListUsers)
}
