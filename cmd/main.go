package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BlitzHub/config"
	"BlitzHub/internal/coordinator"
	"BlitzHub/internal/matchmaker"
	"BlitzHub/internal/middleware"
	"BlitzHub/internal/record"
	"BlitzHub/internal/storage"
	"BlitzHub/internal/utils"
	"BlitzHub/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	if err := config.Load(*cfgPath); err != nil {
		utils.Log.Fatal("load config", "err", err)
	}
	utils.Init(config.C.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//-------------------------------------------------------
	// 1. Session records (best effort)
	//-------------------------------------------------------
	repo, closeRepo, err := openRepo(ctx)
	if err != nil {
		utils.Log.Fatal("open record store", "backend", config.C.Record.Backend, "err", err)
	}
	defer closeRepo()
	writer := record.NewWriter(repo, config.C.Record.QueueSize)

	//-------------------------------------------------------
	// 2. Hub + coordinator
	//-------------------------------------------------------
	hub := websocket.NewHub()
	coord := coordinator.New(hub, writer, coordinator.Options{
		Limits: matchmaker.Limits{
			MinBaseMs: config.C.Match.MinBaseMs,
			MaxBaseMs: config.C.Match.MaxBaseMs,
			MinIncMs:  config.C.Match.MinIncMs,
			MaxIncMs:  config.C.Match.MaxIncMs,
		},
		ValidateFEN: config.C.Match.ValidateFEN,
	})
	hub.OnMessage = coord.HandleMessage
	hub.OnDisconnect = coord.HandleDisconnect
	go hub.Run()

	//-------------------------------------------------------
	// 3. Gin + CORS
	//-------------------------------------------------------
	r := gin.Default()
	r.Use(cors.New(corsConfig(config.C.Server.AllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := coordinator.NewHandler(coord, repo)
	r.GET("/presence", h.Presence)
	r.GET("/match/stats", h.Stats)
	r.GET("/rooms/:id", h.Room)

	//-------------------------------------------------------
	// 4. WebSocket entry
	//-------------------------------------------------------
	secret := []byte(config.C.JWT.Secret)
	if len(secret) == 0 {
		utils.Log.Warn("jwt.secret is empty, /ws accepts unauthenticated clients")
	}
	r.GET("/ws", middleware.JwtAuthMiddleware(secret), websocket.ServeWS(hub))

	//-------------------------------------------------------
	// 5. Serve until signalled
	//-------------------------------------------------------
	srv := &http.Server{Addr: config.C.Server.Port, Handler: r}
	go func() {
		utils.Log.Info("server running", "addr", config.C.Server.Port, "records", config.C.Record.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Fatal("listen", "err", err)
		}
	}()

	<-ctx.Done()
	utils.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Log.Error("http shutdown", "err", err)
	}
	hub.Close()
	<-hub.Done()
	writer.Close()
}

// openRepo picks the record backend from config.
func openRepo(ctx context.Context) (record.Repo, func(), error) {
	switch config.C.Record.Backend {
	case "redis":
		rdb, err := storage.NewRedis(ctx, config.C.Redis.Addr, config.C.Redis.Password, config.C.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		ttl := time.Duration(config.C.Record.TTLSeconds) * time.Second
		return record.NewRedisRepo(rdb, ttl), func() { _ = rdb.Close() }, nil
	case "postgres":
		db, err := storage.NewPostgres(ctx, config.C.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		repo, err := record.NewPostgresRepo(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil
	default:
		return record.NewMemoryRepo(), func() {}, nil
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
