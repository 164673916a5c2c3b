package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"decadebox/config"
	"decadebox/handlers"
	"decadebox/services/catalog"
	"decadebox/services/tmdb"
	"decadebox/utils"
)

func main() {
	_ = godotenv.Load()

	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   "logs/decadebox.log",
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}))

	cfg := config.Load()

	client := tmdb.NewClient(cfg.TMDBAPIKey, nil)
	resolver := catalog.NewService(client, catalog.Strategy(cfg.Strategy), cfg.PrefetchConcurrency)

	router := utils.NewRouter()
	handlers.NewCatalogHandler(resolver).Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[main] shutdown error: %v", err)
		}
	}()

	log.Printf("[main] listening on :%s (strategy=%s, credential=%v)", cfg.Port, cfg.Strategy, cfg.CredentialPresent())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[main] server error: %v", err)
	}
	log.Printf("[main] shut down cleanly")
}
