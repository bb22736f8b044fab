package echoServer

import (
	"net/http"

	"booklending/app/echoServer/controller"
	"booklending/app/echoServer/controller/auth"
	"booklending/app/echoServer/controller/book"
	"booklending/app/echoServer/controller/lending"
	"booklending/app/echoServer/controller/notification"
	jwtutil "booklending/util/jwt"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth         *auth.Controller
	Book         *book.Controller
	Lending      *lending.Controller
	Notification *notification.Controller
	User         *controller.UserController

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),
	}))
	// user_id + role extraction from the bearer token
	authed.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := jwtutil.ParseAuth(ctx.Request().Header.Get(echo.HeaderAuthorization), c.JWTSecret)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", int64(sub))
			if role, ok := claims["role"].(string); ok {
				ctx.Set("role", role)
			}
			return next(ctx)
		}
	})

	// Books
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)
	// Admin endpoints
	authed.POST("/books", c.Book.Create)
	authed.PUT("/books/:id", c.Book.Update)
	authed.DELETE("/books/:id", c.Book.Delete)

	// Lendings
	authed.POST("/lendings", c.Lending.Request)
	authed.GET("/lendings/my", c.Lending.MyHistory)
	// Admin endpoints
	authed.GET("/lendings", c.Lending.List)
	authed.POST("/lendings/:id/approve", c.Lending.Approve)
	authed.POST("/lendings/:id/borrow", c.Lending.Borrow)
	authed.POST("/lendings/:id/return", c.Lending.Return)
	authed.PUT("/lendings/:id/due-date", c.Lending.EditDueDate)
	authed.DELETE("/lendings/:id", c.Lending.Delete)

	// Notifications
	authed.GET("/notifications", c.Notification.ListMine)
	authed.POST("/notifications/:id/read", c.Notification.MarkRead)

	// Users
	authed.GET("/users/me", c.User.Me)
	// Admin endpoints
	authed.GET("/users", c.User.List)
	authed.PUT("/users/:id/role", c.User.SetRole)
}
