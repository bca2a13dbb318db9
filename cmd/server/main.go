package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sirupsen/logrus"

	"github.com/mkarlsen/spireline/internal/auth"
	"github.com/mkarlsen/spireline/internal/cache"
	"github.com/mkarlsen/spireline/internal/database"
	"github.com/mkarlsen/spireline/internal/handlers"
	"github.com/mkarlsen/spireline/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// init auth keys
	auth.Init()

	ms := handlers.NewMatchServer(logger)

	// Redis history queue is optional; the engine keeps its in-memory log
	// either way.
	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("redis unavailable, history queue disabled")
	} else {
		ms.PublishHistory = true
	}

	// Postgres match saves are optional too, gated on PG_HOST.
	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
		defer database.DB.Close()
		ms.Persist = true
	} else {
		logger.Info("PG_HOST not set, match persistence disabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.PingHandler)
	mux.HandleFunc("/match/create", ms.CreateMatchHandler)
	mux.HandleFunc("/match/save", ms.SaveMatchHandler)
	mux.HandleFunc("/match/load", ms.LoadMatchHandler)
	mux.Handle("/match/ws", handlers.MatchWSHandler(logger, ms))

	server := &http.Server{
		Handler:      middleware.LogMiddleware(logger)(mux),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	port := os.Getenv("SPIRELINE_SERVICE_PORT")
	if port == "" {
		port = "8080"
	}
	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		logger.Fatalf("failed to listen on :%s: %v", port, err)
	}
	logger.Infof("spireline server listening on :%s", port)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("server error: %v", err)
	case sig := <-sigs:
		logger.Infof("received %v, shutting down", sig)
	}
	server.Close()
}
