// Package main library lending API.
//
// @title           Library Lending API
// @version         1.0
// @description     Library management service (catalog, lendings, users, notifications).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"booklending/app/echoServer"
	"booklending/app/echoServer/controller"
	authctrl "booklending/app/echoServer/controller/auth"
	bookctrl "booklending/app/echoServer/controller/book"
	lendingctrl "booklending/app/echoServer/controller/lending"
	notifctrl "booklending/app/echoServer/controller/notification"
	"booklending/app/echoServer/validation"
	"booklending/config"
	authrepo "booklending/repository/auth"
	bookrepo "booklending/repository/book"
	lendingrepo "booklending/repository/lending"
	notifrepo "booklending/repository/notification"
	authsvc "booklending/service/auth"
	booksvc "booklending/service/book"
	lendingsvc "booklending/service/lending"
	notifsvc "booklending/service/notification"
	"booklending/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ar := authrepo.New(db)
	br := bookrepo.New(db)
	lr := lendingrepo.New(db)
	nr := notifrepo.New(db)

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	bs := booksvc.New(br, lr)
	ls := lendingsvc.New(lr, nr, log)
	ns := notifsvc.New(nr)

	// overdue sweeper
	sweeper := lendingsvc.NewSweeper(lr, nr, log)
	go sweeper.Run(ctx, cfg.SweepInterval)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	lendingC := &lendingctrl.Controller{Svc: ls, V: v, Log: log}
	notifC := &notifctrl.Controller{Svc: ns, Log: log}
	userC := &controller.UserController{Svc: as, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Book:         bookC,
		Lending:      lendingC,
		Notification: notifC,
		User:         userC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "sweep_interval", cfg.SweepInterval.String())

	e.Logger.Fatal(e.Start(":" + port))
}
