package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mpdfm/cache"
	"mpdfm/config"
	"mpdfm/core/gateway"
	"mpdfm/core/hub"
	"mpdfm/core/meta"
	"mpdfm/core/mpd"
	"mpdfm/logger"
	"mpdfm/station"

	"github.com/gorilla/mux"
)

const stationCacheTTL = 10 * time.Minute

// Start initializes the session, hub and HTTP server and runs until
// SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	var stationCache *cache.StationCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, playlist cache disabled", logger.ErrorField(err))
		} else {
			defer rdb.Close()
			stationCache = cache.NewStationCache(rdb, stationCacheTTL)
		}
	}

	h := hub.NewHub()
	go h.Run()

	enricher := meta.NewEnricher(meta.NewClient(meta.Config{
		APIKey:  cfg.LastFMAPIKey,
		BaseURL: cfg.LastFMBaseURL,
	}))

	session := mpd.NewSession(mpd.Options{
		Timeout:     cfg.MPDTimeout,
		Enricher:    enricher,
		Broadcaster: h,
	})
	// A dead daemon at startup is not fatal: the session stays
	// Disconnected and every operation fails fast until a reconnect.
	if err := session.Connect(cfg.MPDHost, cfg.MPDPort); err != nil {
		logger.Warn("mpd unreachable at startup", logger.ErrorField(err))
	}

	gw := gateway.New(session, h, cfg.PlaylistPath, cfg.StationFile, stationCache)

	if watcher, err := station.NewWatcher(cfg.PlaylistPath, stationCache, h); err != nil {
		logger.Warn("playlist watcher disabled", logger.ErrorField(err))
	} else {
		go watcher.Run()
		defer watcher.Close()
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	NewPlayerHandler(gw).RegisterRoutes(router)
	router.HandleFunc("/ws", NewWSHandler(gw, h).Handle)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", logger.ErrorField(err))
	}
	h.Stop()
	session.Close()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
