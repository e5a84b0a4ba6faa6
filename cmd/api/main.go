package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cruiseline/internal/booking"
	"cruiseline/internal/httpapi"
	"cruiseline/pkg/config"
	"cruiseline/pkg/reservex"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := reservex.Client{
		HTTPClient: &http.Client{Timeout: cfg.Reservations.Timeout},
		BaseURL:    cfg.Reservations.BaseURL,
		APIKey:     cfg.Reservations.APIKey,
	}

	store := booking.NewStore(cfg.SessionTTL)
	store.StartSweeper(ctx, 5*time.Minute)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:    cfg,
		Client: client,
		Store:  store,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
