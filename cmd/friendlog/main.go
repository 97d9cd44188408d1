package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/friendlog/friendlog/internal/auth"
	"github.com/friendlog/friendlog/internal/config"
	httpapp "github.com/friendlog/friendlog/internal/http"
	"github.com/friendlog/friendlog/internal/rate"
	"github.com/friendlog/friendlog/internal/social"
	"github.com/friendlog/friendlog/internal/store/sqlite"
	"github.com/friendlog/friendlog/internal/token"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(os.Getenv("FRIENDLOG_LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	cfg := config.Load()

	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer st.Close()

	issuer := token.NewIssuer(cfg.TokenSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authSvc := auth.NewService(st, issuer, cfg.BcryptCost)
	coord := social.NewCoordinator(st, log)
	limiter := rate.NewMemory()

	server := httpapp.NewServer(coord, authSvc, issuer, limiter, cfg, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("friendlog listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}
