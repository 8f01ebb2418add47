package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fathurrizqi/tokolaptop/internal/config"
	"github.com/fathurrizqi/tokolaptop/internal/es"
	"github.com/fathurrizqi/tokolaptop/internal/handlers"
	"github.com/fathurrizqi/tokolaptop/internal/logging"
	"github.com/fathurrizqi/tokolaptop/internal/mykafka"
	"github.com/fathurrizqi/tokolaptop/internal/payment"
	"github.com/fathurrizqi/tokolaptop/internal/service/cart"
	"github.com/fathurrizqi/tokolaptop/internal/service/nego"
	"github.com/fathurrizqi/tokolaptop/internal/service/order"
	paymentsvc "github.com/fathurrizqi/tokolaptop/internal/service/payment"
	"github.com/fathurrizqi/tokolaptop/internal/service/token"
	"github.com/fathurrizqi/tokolaptop/internal/storage"
	httpserver "github.com/fathurrizqi/tokolaptop/internal/transport/http"
	"github.com/fathurrizqi/tokolaptop/internal/validation"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	uploader, err := storage.NewCloudinary(configuration.CLOUDINARY_URL)
	if err != nil {
		log.Fatal(err)
	}

	snapClient := payment.NewSnapClient(configuration.MIDTRANS_SERVER_KEY, configuration.MIDTRANS_PRODUCTION)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Validator = validation.New()

	deps := httpserver.Deps{
		DB: db,
		AuthHandler: &handlers.AuthHandler{
			DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod,
		},
		ProductHandler: &handlers.ProductHandler{
			DB: db, Producer: prod, ES: esClient, Index: "products", Uploader: uploader,
		},
		CartHandler: &handlers.CartHandler{
			Service: &cart.Service{DB: db}, Producer: prod,
		},
		NegoHandler: &handlers.NegotiationHandler{
			Service: &nego.Service{DB: db}, Producer: prod,
		},
		OrderHandler: &handlers.OrderHandler{
			Service: &order.Service{DB: db}, Producer: prod,
		},
		PaymentHandler: &handlers.PaymentHandler{
			Service: &paymentsvc.Service{DB: db, Snap: snapClient}, Producer: prod,
		},
		ProfileHandler: &handlers.ProfileHandler{DB: db, Uploader: uploader},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "products"},
		TokenService:   &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
