package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonFloz/P3-31899312/handlers"
	"github.com/JonFloz/P3-31899312/internal/auth"
	"github.com/JonFloz/P3-31899312/internal/orders"
	"github.com/JonFloz/P3-31899312/internal/payment"
	"github.com/JonFloz/P3-31899312/internal/products"
	"github.com/JonFloz/P3-31899312/internal/stores/kafka"
	"github.com/JonFloz/P3-31899312/internal/stores/postgres"
	"github.com/JonFloz/P3-31899312/internal/users"
	"github.com/JonFloz/P3-31899312/pkg/logkey"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", slog.String(logkey.Error, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	keys, err := auth.NewKeys(os.Getenv("JWT_SECRET"))
	if err != nil {
		return err
	}

	u, err := users.NewConf(db)
	if err != nil {
		return err
	}
	p, err := products.NewConf(db)
	if err != nil {
		return err
	}
	orderStore, err := orders.NewConf(db)
	if err != nil {
		return err
	}

	gatewayURL := os.Getenv("PAYMENT_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "http://localhost:9000"
	}
	registry := payment.NewRegistry()
	registry.Register(payment.MethodCreditCard, payment.NewCreditCard(gatewayURL, 30*time.Second))

	var publisher orders.EventPublisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		k, err := kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return err
		}
		defer k.Close()
		publisher = orders.NewKafkaPublisher(k)
	}

	svc, err := orders.NewService(p, orderStore, registry, publisher)
	if err != nil {
		return err
	}

	router, err := handlers.API(u, p, svc, keys)
	if err != nil {
		return err
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("server listening", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return err
		}
	}
	return nil
}
